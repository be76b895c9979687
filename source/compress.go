package source

import (
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// algo returns the compression algo implied by the file name extension
func algo(name string) string {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return "ZSTD"
	case strings.HasSuffix(name, ".gz"):
		return "GZIP"
	case strings.HasSuffix(name, ".xz"):
		return "XZ"
	}
	return ""
}

// readCloser closes the decompressor before the underlying source
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// newReader ...
func newReader(name string, src io.ReadCloser) (io.ReadCloser, error) {
	a := algo(name)
	switch a {
	case "ZSTD":
		d, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create decompress reader [" + name + "] [" + err.Error() + "]")
		}
		return &readCloser{Reader: d, closers: []func() error{
			func() error { d.Close(); return nil },
			src.Close,
		}}, nil
	case "GZIP":
		d, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create decompress reader [" + name + "] [" + err.Error() + "]")
		}
		return &readCloser{Reader: d, closers: []func() error{d.Close, src.Close}}, nil
	case "XZ":
		d, err := xz.NewReader(src)
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create decompress reader [" + name + "] [" + err.Error() + "]")
		}
		return &readCloser{Reader: d, closers: []func() error{src.Close}}, nil
	}
	return src, nil
}

// writeCloser flushes the compressor before closing the target
type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// newWriter ...
func newWriter(name string, dst io.WriteCloser) (io.WriteCloser, error) {
	a := algo(name)
	switch a {
	case "ZSTD":
		w, err := zstd.NewWriter(dst,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderCRC(true),
			zstd.WithZeroFrames(false))
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create compress writer [" + err.Error() + "]")
		}
		return &writeCloser{Writer: w, closers: []func() error{w.Close, dst.Close}}, nil
	case "GZIP":
		w, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create compress writer [" + err.Error() + "]")
		}
		return &writeCloser{Writer: w, closers: []func() error{w.Close, dst.Close}}, nil
	case "XZ":
		w, err := xz.NewWriter(dst)
		if err != nil {
			return nil, errors.New("[source] [" + a + "] unable to create compress writer [" + err.Error() + "]")
		}
		return &writeCloser{Writer: w, closers: []func() error{w.Close, dst.Close}}, nil
	}
	return dst, nil
}
