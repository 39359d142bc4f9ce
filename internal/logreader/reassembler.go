package logreader

import (
	"context"
	"errors"
	"io"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// LinePredicate classifies one physical line
type LinePredicate func(line string) bool

// Never matches no line
func Never(string) bool { return false }

// Reassembler merges continuation lines into logical records.
// A boundary line starts a new record, a skip line ends the current one and
// is itself discarded, anything else is appended to the record in progress.
type Reassembler struct {
	isBoundary LinePredicate
	isSkip     LinePredicate
	current    *domain.LogicalRecord
}

// NewReassembler creates a reassembler. A nil predicate never matches.
func NewReassembler(isBoundary, isSkip LinePredicate) *Reassembler {
	if isBoundary == nil {
		isBoundary = Never
	}
	if isSkip == nil {
		isSkip = Never
	}
	return &Reassembler{isBoundary: isBoundary, isSkip: isSkip}
}

// Push feeds one line and returns the record it completed, if any
func (r *Reassembler) Push(line domain.RawLine) *domain.LogicalRecord {
	if r.isSkip(line.Text) {
		return r.Flush()
	}

	if r.current == nil {
		r.current = domain.NewLogicalRecord(line)
		return nil
	}

	if r.isBoundary(line.Text) {
		done := r.current
		r.current = domain.NewLogicalRecord(line)
		return done
	}

	r.current.Append(line)
	return nil
}

// Flush returns the record in progress and resets the state.
// It returns nil when nothing is accumulated.
func (r *Reassembler) Flush() *domain.LogicalRecord {
	done := r.current
	r.current = nil
	return done
}

// Pending reports whether a record is in progress
func (r *Reassembler) Pending() bool {
	return r.current != nil
}

// Run drains src through the reassembler and calls emit for every completed
// record, including the final one at end of input. It returns the number of
// physical lines read. An emit error stops the run.
func (r *Reassembler) Run(ctx context.Context, src LineSource, emit func(*domain.LogicalRecord) error) (int, error) {
	lines := 0
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return lines, err
		}
		lines++

		if done := r.Push(line); done != nil {
			if err := emit(done); err != nil {
				return lines, err
			}
		}
	}

	if done := r.Flush(); done != nil {
		if err := emit(done); err != nil {
			return lines, err
		}
	}

	return lines, nil
}
