package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"predigt/internal/config"
	"predigt/internal/testsupport"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckRemote(t *testing.T) {
	if r := CheckRemote(context.Background(), nil); r.Passed {
		t.Fatal("expected failure without store")
	}
	if r := CheckRemote(context.Background(), pingFunc(func(context.Context) error { return nil })); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	r := CheckRemote(context.Background(), pingFunc(func(context.Context) error { return errors.New("530 login incorrect") }))
	if r.Passed || !strings.Contains(r.Detail, "530") {
		t.Fatalf("expected login failure detail, got %+v", r)
	}
	if r := CheckRemote(context.Background(), testsupport.NewFakeStore()); !r.Passed {
		t.Fatalf("fake store should pass, got %s", r.Detail)
	}
}

func TestCheckWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if r := CheckWebsite(context.Background(), srv.URL); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckWebsite(context.Background(), srv.URL+"/missing"); r.Passed {
		t.Fatal("expected failure for 404")
	}
	if r := CheckWebsite(context.Background(), ""); r.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestCheckCompleteness(t *testing.T) {
	cfg := config.Default()
	r := CheckCompleteness(&cfg)
	if r.Passed {
		t.Fatal("default config must not be complete")
	}
	for _, key := range []string{"youtube.api_key", "youtube.channel_id", "remote.host"} {
		if !strings.Contains(r.Detail, key) {
			t.Fatalf("detail %q missing %s", r.Detail, key)
		}
	}

	cfg.YouTube.APIKey = "key"
	cfg.YouTube.ChannelID = "channel"
	cfg.Remote.Host = "ftp.church.test"
	if r := CheckCompleteness(&cfg); !r.Passed {
		t.Fatalf("expected complete config, got %s", r.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SkipsRemoteWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, nil)
	names := map[string]Result{}
	for _, r := range results {
		names[r.Name] = r
	}
	if _, ok := names["Remote store"]; ok {
		t.Fatal("remote check should be skipped for placeholder host")
	}
	for _, want := range []string{"Staging directory", "Output directory", "FFmpeg", "yt-dlp", "Configuration"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("missing check %q in %v", want, results)
		}
	}
	if !names["Staging directory"].Passed || !names["Output directory"].Passed {
		t.Fatal("directory checks should pass for temp dirs")
	}
	if len(Failed(results)) == 0 {
		t.Fatal("incomplete configuration should be reported as failed")
	}
}

func TestRunAll_PingsConfiguredRemote(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Remote.Host = "ftp.church.test"

	store := testsupport.NewFakeStore()
	results := RunAll(context.Background(), &cfg, store)
	found := false
	for _, r := range results {
		if r.Name == "Remote store" {
			found = true
			if !r.Passed {
				t.Fatalf("remote check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected remote check")
	}
	if store.CallCount() != 1 {
		t.Fatalf("expected one ping, got %d calls", store.CallCount())
	}
}
