package runner

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxLine is the longest line, in bytes, a LineReader returns
// before splitting it.
const DefaultMaxLine = 64 << 10

// LineReader splits a process output stream into lines. Input is decoded
// as UTF-8 with invalid sequences replaced by U+FFFD. A line ends at '\n'
// (a preceding '\r' is dropped); a final fragment without a newline is
// returned as the last line. Lines longer than the limit are returned in
// pieces, each cut on a rune boundary.
type LineReader struct {
	br      *bufio.Reader
	max     int
	pending []byte
	err     error
}

// NewLineReader returns a LineReader over r. maxLine <= 0 selects
// DefaultMaxLine.
func NewLineReader(r io.Reader, maxLine int) *LineReader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &LineReader{
		br:  bufio.NewReaderSize(transform.NewReader(r, unicode.UTF8.NewDecoder()), max(min(maxLine, 4096), 16)),
		max: maxLine,
	}
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// once the stream is exhausted and no partial line remains, or the read
// error that ended the stream.
func (l *LineReader) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(l.pending, '\n'); i >= 0 {
			if line := bytes.TrimSuffix(l.pending[:i], []byte("\r")); len(line) <= l.max {
				l.pending = l.pending[i+1:]
				return string(line), nil
			}
		}
		if len(l.pending) >= l.max {
			cut := runeCut(l.pending, l.max)
			line := string(l.pending[:cut])
			l.pending = l.pending[cut:]
			return line, nil
		}
		if l.err != nil {
			if len(l.pending) > 0 {
				line := string(l.pending)
				l.pending = nil
				return line, nil
			}
			return "", l.err
		}
		frag, err := l.br.ReadSlice('\n')
		l.pending = append(l.pending, frag...)
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			l.err = err
		}
	}
}

// Each calls fn for every line until EOF or until fn returns an error.
func (l *LineReader) Each(fn func(string) error) error {
	for {
		line, err := l.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}

// runeCut returns the largest index <= n that starts a rune in b.
func runeCut(b []byte, n int) int {
	if n >= len(b) {
		return len(b)
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	if cut == 0 {
		return n
	}
	return cut
}

// decodeLossy converts b to a string, replacing invalid UTF-8 with U+FFFD.
func decodeLossy(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(out)
}
