package signal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// maxLineSize bounds a single JSON line.
const maxLineSize = 1 << 20

// JSONLinesSource streams one JSON encoded signal per line. Blank lines are skipped.
type JSONLinesSource struct {
	mu      sync.Mutex
	file    io.ReadSeekCloser
	scanner *bufio.Scanner
	line    int
	// failed is set once the reader fails; the stream then ends.
	failed bool
}

// OpenJSONLines opens a JSON lines file.
func OpenJSONLines(path string) (*JSONLinesSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to open signal file %s", path)
	}

	return NewJSONLinesSource(file), nil
}

// NewJSONLinesSource reads signals from r. Reset seeks r back to its start.
func NewJSONLinesSource(r io.ReadSeekCloser) *JSONLinesSource {
	s := &JSONLinesSource{file: r}
	s.rewind()

	return s
}

func (s *JSONLinesSource) rewind() {
	s.scanner = bufio.NewScanner(s.file)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s.line = 0
	s.failed = false
}

func (s *JSONLinesSource) Next(ctx context.Context) (types.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return types.Signal{}, err
		}

		if s.failed {
			return types.Signal{}, ErrEndOfStream
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.failed = true

				return types.Signal{}, errors.Wrapf(errors.ErrCodeInvalidSignal, err, "failed to read signal stream after line %d", s.line)
			}

			return types.Signal{}, ErrEndOfStream
		}

		s.line++

		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var signal types.Signal
		if err := json.Unmarshal(raw, &signal); err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeInvalidSignal, err, "line %d is not a valid signal", s.line)
		}

		if err := signal.Validate(); err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeInvalidSignal, err, "line %d", s.line)
		}

		return signal, nil
	}
}

func (s *JSONLinesSource) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to rewind signal stream", err)
	}

	s.rewind()

	return nil
}

func (s *JSONLinesSource) Close() error {
	return s.file.Close()
}
