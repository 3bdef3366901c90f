// Package feed reads a tick file: one decimal price per line, in order.
package feed

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"crossover-backtester/internal/model"
)

// maxLineLen bounds a line that can still hold a price. Longer lines are
// drained and skipped.
const maxLineLen = 4096

// File is a sequential tick source over one input file.
// Lines that do not hold a finite number are skipped and do not consume an index.
type File struct {
	path    string
	f       *os.File
	r       *bufio.Reader
	buf     []byte
	line    int
	index   int
	skipped int
	err     error
	log     *slog.Logger
}

// Open opens path for reading ticks.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}
	return &File{
		path: path,
		f:    f,
		r:    bufio.NewReader(f),
		log:  slog.Default(),
	}, nil
}

// WithLogger sets the logger used for skipped-line warnings.
func (t *File) WithLogger(l *slog.Logger) *File {
	if l != nil {
		t.log = l
	}
	return t
}

// Next returns the next valid tick. It returns false at end of input or on a
// read error; check Err afterwards.
func (t *File) Next() (model.Tick, bool) {
	if t.err != nil {
		return model.Tick{}, false
	}
	for {
		raw, tooLong, err := t.readLine()
		if err != nil {
			if err != io.EOF {
				t.err = fmt.Errorf("read %s: %w", t.path, err)
			}
			return model.Tick{}, false
		}
		t.line++

		if tooLong {
			t.skipped++
			t.log.Warn("skipping overlong line",
				"file", t.path,
				"line", t.line,
				"max_bytes", maxLineLen,
			)
			continue
		}

		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		price, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			t.skipped++
			t.log.Warn("skipping invalid price line",
				"file", t.path,
				"line", t.line,
				"text", text,
			)
			continue
		}

		tick := model.Tick{Index: t.index, Price: price}
		t.index++
		return tick, true
	}
}

// readLine returns the next line. A line over maxLineLen is consumed whole
// and reported as tooLong. io.EOF is returned only when no bytes remain.
func (t *File) readLine() ([]byte, bool, error) {
	t.buf = t.buf[:0]
	tooLong := false
	read := 0
	for {
		chunk, err := t.r.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			if len(t.buf)+len(chunk) > maxLineLen {
				tooLong = true
				t.buf = t.buf[:0]
			} else {
				t.buf = append(t.buf, chunk...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && read > 0:
			return t.buf, tooLong, nil
		default:
			return t.buf, tooLong, err
		}
	}
}

// Err returns the read error that ended the sequence, if any.
func (t *File) Err() error { return t.err }

// Skipped returns the number of invalid lines skipped so far.
func (t *File) Skipped() int { return t.skipped }

// Path returns the file path.
func (t *File) Path() string { return t.path }

// Reset rewinds to the first line; the next tick has index 0 again.
func (t *File) Reset() error {
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", t.path, err)
	}
	t.r.Reset(t.f)
	t.line, t.index, t.skipped = 0, 0, 0
	t.err = nil
	return nil
}

// Close closes the underlying file.
func (t *File) Close() error {
	return t.f.Close()
}
