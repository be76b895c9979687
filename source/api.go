// package source opens prefix list inputs (files, stdin, http(s) urls) and
// output targets, with transparent zstd, gzip and xz (de)compression
package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"strings"
	"time"
)

// const
const (
	Stdio = "-" // read stdin, write stdout

	_DEFAULT_USERAGENT = "netagg"
	_DEFAULT_TIMEOUT   = 30 * time.Second
	_DEFAULT_MAXBYTES  = 256 << 20
)

// Options ...
type Options struct {
	UserAgent string        // http user agent
	Timeout   time.Duration // http request timeout
	MaxBytes  int64         // max download size before decompression
	KeyPin    string        // optional server public key pin, see KeyPinBase64
	Client    HTTPDoer      // optional, replaces the hardened client and its key pin
	Stdin     io.Reader     // optional, default os.Stdin
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return _DEFAULT_USERAGENT
	}
	return o.UserAgent
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return _DEFAULT_TIMEOUT
	}
	return o.Timeout
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes <= 0 {
		return _DEFAULT_MAXBYTES
	}
	return o.MaxBytes
}

// IsURL ...
func IsURL(name string) bool {
	return strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://")
}

// Open returns a reader for name: "-" is stdin, http(s) urls are fetched,
// everything else is a local file. Content is decompressed by extension.
func Open(ctx context.Context, name string, opts Options) (io.ReadCloser, error) {
	switch {
	case name == Stdio:
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		return io.NopCloser(in), nil
	case IsURL(name):
		u, err := url.Parse(name)
		if err != nil {
			return nil, errors.New("[source] [open] invalid url syntax [" + name + "] [" + err.Error() + "]")
		}
		data, err := fetch(ctx, name, opts)
		if err != nil {
			return nil, err
		}
		return newReader(u.Path, io.NopCloser(bytes.NewReader(data)))
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.New("[source] [open] unable to read file [" + name + "] [" + err.Error() + "]")
	}
	r, err := newReader(name, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Create returns a writer for name: "-" or empty is stdout, everything else
// is a local file, compressed by extension. Close flushes and closes the file.
func Create(name string) (io.WriteCloser, error) {
	if name == "" || name == Stdio {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return nil, errors.New("[source] [create] unable to write file [" + name + "] [" + err.Error() + "]")
	}
	w, err := newWriter(name, f)
	if err != nil {
		f.Close()
		os.Remove(name)
		return nil, err
	}
	return w, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
