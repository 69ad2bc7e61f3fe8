package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeRemote()
	c.normalizeCompressor()
	c.normalizeDownload()
	c.normalizePublisher()
	c.normalizeNotifications()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ToolsDir, err = expandPath(strings.TrimSpace(c.Paths.ToolsDir)); err != nil {
		return fmt.Errorf("paths.tools_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	if value, ok := lookupEnv("YOUTUBE_API_KEY"); ok {
		c.YouTube.APIKey = value
	}
	if value, ok := lookupEnv("YOUTUBE_CHANNEL_ID"); ok {
		c.YouTube.ChannelID = value
	}
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	c.YouTube.ChannelID = strings.TrimSpace(c.YouTube.ChannelID)
	c.YouTube.BaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.BaseURL), "/")
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultYouTubeTimeout
	}
}

func (c *Config) normalizeRemote() {
	if value, ok := lookupEnv("FTP_SERVER"); ok {
		c.Remote.Host = value
	}
	if value, ok := lookupEnv("FTP_USERNAME"); ok {
		c.Remote.User = value
	}
	if value, ok := lookupEnv("FTP_PASSWORD"); ok {
		c.Remote.Password = value
	}
	c.Remote.Kind = strings.ToLower(strings.TrimSpace(c.Remote.Kind))
	if c.Remote.Kind == "" {
		c.Remote.Kind = defaultRemoteKind
	}
	if c.Remote.Kind == RemoteKindS3 {
		if value, ok := lookupEnv("S3_ACCESS_KEY"); ok {
			c.Remote.User = value
		}
		if value, ok := lookupEnv("S3_SECRET_KEY"); ok {
			c.Remote.Password = value
		}
	}
	c.Remote.Host = strings.TrimSpace(c.Remote.Host)
	c.Remote.User = strings.TrimSpace(c.Remote.User)
	c.Remote.Dir = strings.TrimSpace(c.Remote.Dir)
	c.Remote.Bucket = strings.TrimSpace(c.Remote.Bucket)
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = defaultRemoteTimeout
	}
}

func (c *Config) normalizeCompressor() {
	c.Compressor.Bitrate = strings.ToLower(strings.TrimSpace(c.Compressor.Bitrate))
	if c.Compressor.Bitrate == "" {
		c.Compressor.Bitrate = defaultBitrate
	}
}

func (c *Config) normalizeDownload() {
	c.Download.YtdlpBinary = strings.TrimSpace(c.Download.YtdlpBinary)
	if c.Download.YtdlpBinary == "" {
		c.Download.YtdlpBinary = defaultYtdlpBinary
	}
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
	c.Download.AudioQuality = strings.TrimSpace(c.Download.AudioQuality)
	if c.Download.AudioQuality == "" {
		c.Download.AudioQuality = defaultAudioQuality
	}
}

func (c *Config) normalizePublisher() {
	c.Publisher.Slug = strings.TrimSpace(c.Publisher.Slug)
	c.Publisher.Name = strings.TrimSpace(c.Publisher.Name)
	c.Publisher.Copyright = strings.TrimSpace(c.Publisher.Copyright)
	c.Publisher.Album = strings.TrimSpace(c.Publisher.Album)
	c.Publisher.Genre = strings.TrimSpace(c.Publisher.Genre)
	c.Publisher.WebsiteURL = strings.TrimSpace(c.Publisher.WebsiteURL)
	c.Publisher.UpdateURL = strings.TrimSpace(c.Publisher.UpdateURL)
	if c.Publisher.Album == "" {
		c.Publisher.Album = defaultPublisherAlbum
	}
	if c.Publisher.Genre == "" {
		c.Publisher.Genre = defaultPublisherGenre
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := lookupEnv("PREDIGT_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.Progress = strings.ToLower(strings.TrimSpace(c.Pipeline.Progress))
	if c.Pipeline.Progress == "" {
		c.Pipeline.Progress = defaultProgress
	}
	if c.Pipeline.StaleScratchHours < 0 {
		c.Pipeline.StaleScratchHours = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
