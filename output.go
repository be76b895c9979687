package netagg

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"paepcke.de/netagg/aggregate"
	"paepcke.de/netagg/prefix"
	"paepcke.de/netagg/source"
)

// pf table file header
const (
	_LF = "\n"
	_H1 = "#" + _LF
	_H2 = "# pf(4) AGGREGATED ADDRESS TABLES" + _LF
	_H3 = "# Do not edit manually! - This file is auto-generated via netagg" + _LF
	_H4 = "# please add to /etc/pf.conf -> include \"<this file>\"" + _LF
)

// writeResult renders the aggregated set into the configured output
func writeResult(cfg *Config, pfxs []prefix.Prefix) (err error) {
	var w io.WriteCloser
	switch {
	case cfg.Stdout != nil && (cfg.Output == "" || cfg.Output == source.Stdio):
		w = nopCloser{cfg.Stdout}
	default:
		if w, err = source.Create(cfg.Output); err != nil {
			return err
		}
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.New("[netagg] [output] unable to close [" + cfg.Output + "] [" + cerr.Error() + "]")
		}
	}()
	bw := bufio.NewWriterSize(w, _writerBuf)
	if err := render(bw, cfg.Format, cfg.Table, pfxs); err != nil {
		return errors.New("[netagg] [output] unable to write [" + cfg.Output + "] [" + err.Error() + "]")
	}
	return bw.Flush()
}

// render writes sorted pfxs in the given format
func render(w io.Writer, format, table string, pfxs []prefix.Prefix) error {
	if format == FormatPF {
		return renderPF(w, table, pfxs)
	}
	return renderPlain(w, pfxs)
}

// renderPlain writes one prefix per line
func renderPlain(w io.Writer, pfxs []prefix.Prefix) error {
	buf := make([]byte, 0, 64)
	for _, p := range pfxs {
		buf = append(p.AppendTo(buf[:0]), _linefeed)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// renderPF writes a const pf table per non-empty address family
func renderPF(w io.Writer, table string, pfxs []prefix.Prefix) error {
	v4, v6 := aggregate.SplitFamilies(pfxs)
	b := []byte(_H1 + _H2 + _H3 + _H1 + _H4 + _H1)
	for _, t := range []struct {
		suffix string
		list   []prefix.Prefix
	}{{_ip4, v4}, {_ip6, v6}} {
		if len(t.list) == 0 {
			continue
		}
		b = append(b, "\ntable <"+strings.ToLower(table)+t.suffix+"> const persist { "...)
		for _, p := range t.list {
			b = append(p.AppendTo(b), ' ')
		}
		b = append(b, "}\n"...)
	}
	_, err := w.Write(b)
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
