package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"predigt/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "ready")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ToolsDir = filepath.Join(base, "tools")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.YouTube.APIKey = "test-key"
	cfgVal.YouTube.ChannelID = "UC-test"
	cfgVal.Remote.Host = "ftp.test"
	cfgVal.Remote.User = "user"
	cfgVal.Remote.Password = "secret"
	cfgVal.Pipeline.HistoryEnabled = false

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	for _, dir := range []string{cfgVal.Paths.StagingDir, cfgVal.Paths.OutputDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithProgress sets the pipeline progress granularity.
func WithProgress(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Progress = value
	}
}

// WithHistory enables the SQLite ledger below the log directory.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.HistoryEnabled = true
	}
}

// WithStubbedBinaries writes no-op executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and yt-dlp are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp"}
		}
		scripts := make(map[string]string, len(names))
		for _, name := range names {
			scripts[name] = "exit 0"
		}
		installScripts(b.t, filepath.Join(b.baseDir, "bin"), scripts)
	}
}

// WithScriptedBinary installs an executable running the given shell body.
func WithScriptedBinary(name, body string) ConfigOption {
	return func(b *configBuilder) {
		installScripts(b.t, filepath.Join(b.baseDir, "bin"), map[string]string{name: body})
	}
}

// InstallScript writes an executable shell script into dir and prepends dir to PATH.
func InstallScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	installScripts(t, dir, map[string]string{name: body})
	return filepath.Join(dir, name)
}

func installScripts(t testing.TB, binDir string, scripts map[string]string) {
	t.Helper()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for name, body := range scripts {
		target := filepath.Join(binDir, name)
		script := "#!/bin/sh\n" + strings.TrimSpace(body) + "\n"
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if strings.HasPrefix(oldPath, binDir+string(os.PathListSeparator)) {
		return
	}
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
