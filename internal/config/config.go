package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	ToolsDir   string `toml:"tools_dir"`
	APIBind    string `toml:"api_bind"`
}

// YouTube contains credentials for the livestream listing.
type YouTube struct {
	APIKey         string `toml:"api_key"`
	ChannelID      string `toml:"channel_id"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Remote describes the file store finished sermons are delivered to.
type Remote struct {
	Kind           string `toml:"kind"`
	Host           string `toml:"host"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Dir            string `toml:"dir"`
	Bucket         string `toml:"bucket"`
	UseSSL         bool   `toml:"use_ssl"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Compressor holds the dynamic-range compression settings applied to every sermon.
type Compressor struct {
	ThresholdDB float64 `toml:"threshold_db"`
	Ratio       float64 `toml:"ratio"`
	AttackMs    float64 `toml:"attack_ms"`
	ReleaseMs   float64 `toml:"release_ms"`
	Bitrate     string  `toml:"bitrate"`
}

// Download configures the yt-dlp fetch.
type Download struct {
	YtdlpBinary  string `toml:"ytdlp_binary"`
	Format       string `toml:"format"`
	AudioFormat  string `toml:"audio_format"`
	AudioQuality string `toml:"audio_quality"`
}

// Publisher contains the static metadata and site hooks of the publishing church.
type Publisher struct {
	Slug           string `toml:"slug"`
	Name           string `toml:"name"`
	Copyright      string `toml:"copyright"`
	Album          string `toml:"album"`
	Genre          string `toml:"genre"`
	WebsiteURL     string `toml:"website_url"`
	UpdateURL      string `toml:"update_url"`
	RejectExisting bool   `toml:"reject_existing"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	Errors         bool   `toml:"errors"`
}

// Pipeline contains run-level knobs.
type Pipeline struct {
	Progress          string `toml:"progress"`
	StaleScratchHours int    `toml:"stale_scratch_hours"`
	HistoryEnabled    bool   `toml:"history_enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for predigt.
//
// Configuration sections by subsystem:
//   - Paths: scratch, output and log directories plus the API bind address
//   - YouTube: livestream listing credentials
//   - Remote: FTP or S3-compatible delivery target
//   - Compressor: acompressor parameters and target bitrate
//   - Download: yt-dlp options
//   - Publisher: tag constants, canonical slug and website hooks
//   - Notifications: ntfy push notification settings
//   - Pipeline: progress granularity, scratch reaping and run history
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Remote        Remote        `toml:"remote"`
	Compressor    Compressor    `toml:"compressor"`
	Download      Download      `toml:"download"`
	Publisher     Publisher     `toml:"publisher"`
	Notifications Notifications `toml:"notifications"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files beside the config file and in the working
// directory. godotenv never overrides variables that are already set.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("predigt.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for output validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// HistoryPath returns the SQLite ledger location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockDir returns the directory holding publish lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StagingDir, "locks")
}

// PublicView is the subset of configuration that is safe to expose to clients.
type PublicView struct {
	ThresholdDB   float64 `json:"threshold_db"`
	Ratio         float64 `json:"ratio"`
	AttackMs      float64 `json:"attack"`
	ReleaseMs     float64 `json:"release"`
	WebsiteExists bool    `json:"website_exists"`
	WebsiteURL    string  `json:"website_url"`
}

// PublicView returns the non-secret configuration values.
func (c *Config) PublicView() PublicView {
	return PublicView{
		ThresholdDB:   c.Compressor.ThresholdDB,
		Ratio:         c.Compressor.Ratio,
		AttackMs:      c.Compressor.AttackMs,
		ReleaseMs:     c.Compressor.ReleaseMs,
		WebsiteExists: strings.TrimSpace(c.Publisher.WebsiteURL) != "",
		WebsiteURL:    c.Publisher.WebsiteURL,
	}
}

// Completeness reports which external integrations carry real values.
type Completeness struct {
	YouTubeAPI bool `json:"youtube_api_configured"`
	Channel    bool `json:"channel_configured"`
	Remote     bool `json:"ftp_configured"`
}

// Fully reports whether every integration is configured.
func (c Completeness) Fully() bool {
	return c.YouTubeAPI && c.Channel && c.Remote
}

// Completeness inspects credentials for placeholder or missing values.
func (c *Config) Completeness() Completeness {
	return Completeness{
		YouTubeAPI: configured(c.YouTube.APIKey, placeholderAPIKey),
		Channel:    configured(c.YouTube.ChannelID, placeholderChannelID),
		Remote:     configured(c.Remote.Host, placeholderRemoteHost),
	}
}

func configured(value, placeholder string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != placeholder
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
