// Package logreader turns files into ordered physical lines and reassembles
// multi-line log entries.
package logreader

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// MaxLineSize is the longest physical line a source accepts
const MaxLineSize = 1024 * 1024

// LineSource yields the physical lines of one input in order
type LineSource interface {
	// Next returns the next line.
	// Returns io.EOF when no more lines are available; any other error wraps domain.ErrSourceRead.
	Next(ctx context.Context) (domain.RawLine, error)

	// Name identifies the source in logs
	Name() string

	// Close releases the underlying reader. Calling it more than once is a no-op.
	Close() error
}

// ScannerSource reads lines from an io.Reader with a bufio.Scanner
type ScannerSource struct {
	name    string
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
	closed  bool
}

// NewReaderSource wraps r. The caller keeps ownership of r.
func NewReaderSource(name string, r io.Reader) *ScannerSource {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, MaxLineSize)

	return &ScannerSource{name: name, scanner: scanner}
}

// OpenFile opens path for reading. Files ending in .gz are decompressed.
func OpenFile(path string) (*ScannerSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open file: %v", domain.ErrSourceRead, err)
	}

	var reader io.Reader = file
	closers := []io.Closer{file}

	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: failed to create gzip reader: %v", domain.ErrSourceRead, err)
		}
		reader = gzReader
		closers = append([]io.Closer{gzReader}, closers...)
	}

	src := NewReaderSource(path, reader)
	src.closers = closers

	log.Debug().Str("file", path).Msg("Opened source file")
	return src, nil
}

// Next implements LineSource
func (s *ScannerSource) Next(ctx context.Context) (domain.RawLine, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawLine{}, err
	}

	if s.closed {
		return domain.RawLine{}, io.EOF
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return domain.RawLine{}, fmt.Errorf("%w: line %d: %v", domain.ErrSourceRead, s.line+1, err)
		}
		return domain.RawLine{}, io.EOF
	}

	s.line++
	return domain.RawLine{Number: s.line, Text: strings.TrimSuffix(s.scanner.Text(), "\r")}, nil
}

// Name implements LineSource
func (s *ScannerSource) Name() string {
	return s.name
}

// Close implements LineSource
func (s *ScannerSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
