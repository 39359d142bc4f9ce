// Package writer holds the storage sinks rows are loaded into.
package writer

import (
	"context"
	"fmt"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// LineNumColumn is the auto-numbered leading column every sink adds
const LineNumColumn = "linenum"

// Sink stores typed rows under a schema.
// Each session issues one DropTable and one CreateTable per table before any InsertRow.
type Sink interface {
	// DropTable removes the table if it exists
	DropTable(ctx context.Context, table string) error

	// CreateTable creates the table if it does not exist
	CreateTable(ctx context.Context, schema *domain.Schema) error

	// InsertRow stores one row. values are in schema order and already coerced.
	// A buffering sink may accept a row and lose it later; it then returns a
	// *LostRowsError from InsertRow or Flush.
	InsertRow(ctx context.Context, table string, values []any) error

	// Flush writes any rows the sink still buffers
	Flush(ctx context.Context) error

	// Close flushes, persists column widths and releases the connection
	Close(ctx context.Context) error
}

// LostRowsError reports rows a sink accepted but could not store. Rows
// includes the row of the failing InsertRow call, if any.
type LostRowsError struct {
	Table string
	Rows  int
	Err   error
}

func (e *LostRowsError) Error() string {
	return fmt.Sprintf("lost %d rows of %s: %v", e.Rows, e.Table, e.Err)
}

func (e *LostRowsError) Unwrap() error {
	return e.Err
}
