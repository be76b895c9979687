package netagg

import (
	"runtime"
	"strings"
)

// const
const (
	_app         = "netagg"
	_linefeed    = '\n'
	_comment     = '#'
	_rangeSep    = '-'
	_ip4         = "_ip4"
	_ip6         = "_ip6"
	_feedBuffer  = 1000    // feed channel slots per worker
	_maxLineSize = 1 << 20 // longest accepted input line
	_writerBuf   = 64 << 10
)

// workers ...
func workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// fields splits a line into tokens, dropping a trailing # comment
func fields(line string) []string {
	if i := strings.IndexByte(line, _comment); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}

// isRange ...
func isRange(token string) bool { return strings.IndexByte(token, _rangeSep) > 0 }
