package remote

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"predigt/internal/config"
)

// Store is the remote file store finished sermons are delivered to. Every
// call opens and closes its own session.
type Store interface {
	// List enumerates entry names in the configured directory.
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Store uploads r under name, replacing an entry of the same name.
	Store(ctx context.Context, name string, r io.Reader, size int64) error
	Ping(ctx context.Context) error
}

// Open builds the backend selected by cfg.Kind.
func Open(cfg config.Remote) (Store, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", config.RemoteKindFTP:
		return NewFTP(FTPOptions{
			Host:        cfg.Host,
			User:        cfg.User,
			Password:    cfg.Password,
			Dir:         cfg.Dir,
			ExplicitTLS: cfg.UseSSL,
			Timeout:     timeout,
		}), nil
	case config.RemoteKindS3:
		return NewS3(S3Options{
			Endpoint:  cfg.Host,
			AccessKey: cfg.User,
			SecretKey: cfg.Password,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Dir,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported remote kind %q", cfg.Kind)
	}
}

// baseName strips any directory component some servers echo back in listings.
func baseName(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" || strings.HasSuffix(entry, "/") {
		return entry
	}
	return path.Base(entry)
}
