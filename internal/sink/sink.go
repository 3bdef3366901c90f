// Package sink writes scored records to an output stream, one line per tick.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"crossover-backtester/internal/model"
)

// Separator joins the fields of one output line.
const Separator = ", "

// Writer appends records to an output stream.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	buf    []byte
	lines  int
}

// Create creates or truncates path and returns a Writer over it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	s := New(f)
	s.closer = f
	return s, nil
}

// New wraps w. Close flushes but does not close w.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one line holding rec's fields in order.
func (s *Writer) Write(rec model.Record) error {
	s.buf = s.buf[:0]
	for i, f := range rec.Fields {
		if i > 0 {
			s.buf = append(s.buf, Separator...)
		}
		s.buf = strconv.AppendFloat(s.buf, f.Value, 'g', -1, 64)
	}
	s.buf = append(s.buf, '\n')
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("write record %d: %w", rec.Tick.Index, err)
	}
	s.lines++
	return nil
}

// Lines returns the number of records written.
func (s *Writer) Lines() int { return s.lines }

// Close flushes and, for files opened by Create, closes the file.
func (s *Writer) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
