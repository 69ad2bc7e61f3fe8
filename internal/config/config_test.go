package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"predigt/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"YOUTUBE_API_KEY", "YOUTUBE_CHANNEL_ID",
		"FTP_SERVER", "FTP_USERNAME", "FTP_PASSWORD",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "PREDIGT_NTFY_TOPIC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("FTP_SERVER", "ftp.church.test")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "predigt", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.YouTube.APIKey != "yt-key" {
		t.Fatalf("expected YouTube key from env, got %q", cfg.YouTube.APIKey)
	}
	if cfg.Remote.Host != "ftp.church.test" {
		t.Fatalf("expected remote host from env, got %q", cfg.Remote.Host)
	}
	if cfg.Compressor.ThresholdDB != -12 || cfg.Compressor.Ratio != 2 {
		t.Fatalf("unexpected compressor defaults: %+v", cfg.Compressor)
	}
	if cfg.Compressor.AttackMs != 200 || cfg.Compressor.ReleaseMs != 1000 {
		t.Fatalf("unexpected compressor timing defaults: %+v", cfg.Compressor)
	}
	if cfg.Compressor.Bitrate != "128k" {
		t.Fatalf("unexpected bitrate: %q", cfg.Compressor.Bitrate)
	}
	if cfg.Publisher.Slug != "tpk" {
		t.Fatalf("unexpected slug: %q", cfg.Publisher.Slug)
	}
	if cfg.Pipeline.Progress != config.ProgressCoarse {
		t.Fatalf("expected coarse progress by default, got %q", cfg.Pipeline.Progress)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.LogDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestLoadCustomPathReadsTOML(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "predigt.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"staging_dir": "~/scratch",
			"output_dir":  filepath.Join(tempHome, "ready"),
		},
		"compressor": map[string]any{
			"threshold_db": -18.0,
			"ratio":        4.0,
			"attack_ms":    20.0,
			"release_ms":   250.0,
			"bitrate":      "96K",
		},
		"remote": map[string]any{
			"kind":   "S3",
			"host":   "s3.church.test",
			"bucket": "sermons",
		},
		"pipeline": map[string]any{
			"progress": "Detailed",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.StagingDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected staging dir: %q", cfg.Paths.StagingDir)
	}
	if cfg.Compressor.ThresholdDB != -18 || cfg.Compressor.Ratio != 4 {
		t.Fatalf("unexpected compressor values: %+v", cfg.Compressor)
	}
	if cfg.Compressor.Bitrate != "96k" {
		t.Fatalf("expected bitrate normalized to lowercase, got %q", cfg.Compressor.Bitrate)
	}
	if cfg.Remote.Kind != config.RemoteKindS3 {
		t.Fatalf("expected s3 remote kind, got %q", cfg.Remote.Kind)
	}
	if cfg.Pipeline.Progress != config.ProgressDetailed {
		t.Fatalf("expected detailed progress, got %q", cfg.Pipeline.Progress)
	}
	if cfg.Publisher.Album != "Predigten aus Treffpunkt Leben Karlsruhe" {
		t.Fatalf("expected default album, got %q", cfg.Publisher.Album)
	}
}

func TestEnvOverridesFileCredentials(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FTP_PASSWORD", "from-env")
	t.Setenv("PREDIGT_NTFY_TOPIC", "https://ntfy.sh/predigt")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	contents := "[remote]\nhost = \"ftp.file.test\"\nuser = \"file-user\"\npassword = \"from-file\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Remote.Password != "from-env" {
		t.Fatalf("expected env password to win, got %q", cfg.Remote.Password)
	}
	if cfg.Remote.User != "file-user" {
		t.Fatalf("expected file user to remain, got %q", cfg.Remote.User)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/predigt" {
		t.Fatalf("unexpected ntfy topic %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	os.Unsetenv("YOUTUBE_CHANNEL_ID")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[youtube]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("YOUTUBE_CHANNEL_ID=UC-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("YOUTUBE_CHANNEL_ID") })

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.YouTube.ChannelID != "UC-dotenv" {
		t.Fatalf("expected channel id from .env, got %q", cfg.YouTube.ChannelID)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(configPath); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "YOUR_API_KEY_HERE") {
		t.Fatal("expected placeholder API key in sample config")
	}

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Completeness().Fully() {
		t.Fatal("placeholder credentials must not count as configured")
	}
	if cfg.Completeness().Remote {
		t.Fatal("placeholder remote host must not count as configured")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"positive threshold", func(c *config.Config) { c.Compressor.ThresholdDB = 3 }},
		{"ratio below one", func(c *config.Config) { c.Compressor.Ratio = 0.5 }},
		{"zero attack", func(c *config.Config) { c.Compressor.AttackMs = 0 }},
		{"bitrate without unit", func(c *config.Config) { c.Compressor.Bitrate = "128" }},
		{"unknown remote", func(c *config.Config) { c.Remote.Kind = "sftp" }},
		{"s3 without bucket", func(c *config.Config) {
			c.Remote.Kind = config.RemoteKindS3
			c.Remote.Host = "s3.test"
		}},
		{"empty slug", func(c *config.Config) { c.Publisher.Slug = "" }},
		{"slug with spaces", func(c *config.Config) { c.Publisher.Slug = "Treffpunkt Leben" }},
		{"unknown progress", func(c *config.Config) { c.Pipeline.Progress = "verbose" }},
		{"zero remote timeout", func(c *config.Config) { c.Remote.TimeoutSeconds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestPublicViewOmitsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Password = "secret"
	cfg.YouTube.APIKey = "secret"
	cfg.Publisher.WebsiteURL = "https://example.org/predigten"

	view := cfg.PublicView()
	if !view.WebsiteExists || view.WebsiteURL != "https://example.org/predigten" {
		t.Fatalf("unexpected website fields: %+v", view)
	}
	if view.ThresholdDB != -12 || view.Ratio != 2 || view.AttackMs != 200 || view.ReleaseMs != 1000 {
		t.Fatalf("unexpected compressor view: %+v", view)
	}
}
