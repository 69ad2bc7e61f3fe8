package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCompressor(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validatePublisher(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"youtube.timeout_seconds":       c.YouTube.TimeoutSeconds,
		"remote.timeout_seconds":        c.Remote.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"logging.max_size_mb":           c.Logging.MaxSizeMB,
	})
}

func (c *Config) validateCompressor() error {
	cfg := c.Compressor
	if cfg.ThresholdDB > 0 {
		return errors.New("compressor.threshold_db must be <= 0")
	}
	if cfg.Ratio < 1 || cfg.Ratio > 20 {
		return errors.New("compressor.ratio must be between 1 and 20")
	}
	if cfg.AttackMs <= 0 || cfg.AttackMs > 2000 {
		return errors.New("compressor.attack_ms must be between 0 and 2000")
	}
	if cfg.ReleaseMs <= 0 || cfg.ReleaseMs > 9000 {
		return errors.New("compressor.release_ms must be between 0 and 9000")
	}
	if !strings.HasSuffix(cfg.Bitrate, "k") {
		return fmt.Errorf("compressor.bitrate must be given in kbit/s (e.g. 128k), got %q", cfg.Bitrate)
	}
	return nil
}

func (c *Config) validateRemote() error {
	switch c.Remote.Kind {
	case RemoteKindFTP:
	case RemoteKindS3:
		if c.Remote.Host != "" && c.Remote.Bucket == "" {
			return errors.New("remote.bucket must be set when remote.kind is s3")
		}
	default:
		return fmt.Errorf("remote.kind must be %q or %q, got %q", RemoteKindFTP, RemoteKindS3, c.Remote.Kind)
	}
	return nil
}

func (c *Config) validatePublisher() error {
	if c.Publisher.Slug == "" {
		return errors.New("publisher.slug must be set")
	}
	if !slugPattern.MatchString(c.Publisher.Slug) {
		return fmt.Errorf("publisher.slug must contain only lowercase letters, digits and dashes, got %q", c.Publisher.Slug)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.Progress {
	case ProgressCoarse, ProgressDetailed:
		return nil
	default:
		return fmt.Errorf("pipeline.progress must be %q or %q, got %q", ProgressCoarse, ProgressDetailed, c.Pipeline.Progress)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
