// Package colsize persists the widest value seen in each column so the
// display layer can size its output without scanning the table.
package colsize

import "context"

// Store keeps per-column maximum widths keyed by table and column
type Store interface {
	// SetTable replaces every stored width of a table
	SetTable(ctx context.Context, table string, widths map[string]int) error

	// Table returns the stored widths of one table, empty when none are stored
	Table(ctx context.Context, table string) (map[string]int, error)

	// Close closes the store
	Close() error
}
