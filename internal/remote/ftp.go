package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const defaultFTPPort = "21"

// Conn is the subset of an FTP control connection the backend uses.
// *ftp.ServerConn satisfies it.
type Conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	NameList(path string) ([]string, error)
	Stor(path string, r io.Reader) error
	NoOp() error
	Quit() error
}

// DialFunc opens a control connection to addr.
type DialFunc func(ctx context.Context, addr string, opts FTPOptions) (Conn, error)

// FTPOptions configures the FTP backend.
type FTPOptions struct {
	Host        string
	User        string
	Password    string
	Dir         string
	ExplicitTLS bool
	Timeout     time.Duration
	Dial        DialFunc
}

// FTP stores entries on an FTP server with one connection per operation.
type FTP struct {
	opts FTPOptions
}

// NewFTP constructs the backend. A nil Dial selects jlaffaye/ftp.
func NewFTP(opts FTPOptions) *FTP {
	if opts.Dial == nil {
		opts.Dial = dialFTP
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTP{opts: opts}
}

func dialFTP(ctx context.Context, addr string, opts FTPOptions) (Conn, error) {
	dialOpts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(opts.Timeout),
	}
	if opts.ExplicitTLS {
		host, _, _ := net.SplitHostPort(addr)
		dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: host}))
	}
	return ftp.Dial(addr, dialOpts...)
}

// Address returns host:port, defaulting the port to 21.
func (f *FTP) Address() string {
	host := strings.TrimSpace(f.opts.Host)
	host = strings.TrimPrefix(host, "ftp://")
	host = strings.TrimSuffix(host, "/")
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultFTPPort)
}

func (f *FTP) session(ctx context.Context, op string, fn func(Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(f.opts.Host) == "" {
		return fmt.Errorf("ftp %s: host not configured", op)
	}
	conn, err := f.opts.Dial(ctx, f.Address(), f.opts)
	if err != nil {
		return fmt.Errorf("ftp %s: connect %s: %w", op, f.Address(), err)
	}
	defer func() {
		_ = conn.Quit()
	}()
	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		return fmt.Errorf("ftp %s: login: %w", op, err)
	}
	if dir := strings.TrimSpace(f.opts.Dir); dir != "" {
		if err := conn.ChangeDir(dir); err != nil {
			return fmt.Errorf("ftp %s: cwd %s: %w", op, dir, err)
		}
	}
	if err := fn(conn); err != nil {
		return fmt.Errorf("ftp %s: %w", op, err)
	}
	return nil
}

// List enumerates the working directory with NLST.
func (f *FTP) List(ctx context.Context) ([]string, error) {
	var names []string
	err := f.session(ctx, "list", func(conn Conn) error {
		entries, err := conn.NameList("")
		if err != nil {
			return err
		}
		names = make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, baseName(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Exists reports whether name appears in the directory listing.
func (f *FTP) Exists(ctx context.Context, name string) (bool, error) {
	names, err := f.List(ctx)
	if err != nil {
		return false, err
	}
	for _, candidate := range names {
		if candidate == name {
			return true, nil
		}
	}
	return false, nil
}

// Store uploads r in binary mode.
func (f *FTP) Store(ctx context.Context, name string, r io.Reader, _ int64) error {
	return f.session(ctx, "store", func(conn Conn) error {
		return conn.Stor(name, r)
	})
}

// Ping logs in and issues NOOP.
func (f *FTP) Ping(ctx context.Context) error {
	return f.session(ctx, "ping", func(conn Conn) error {
		return conn.NoOp()
	})
}
