package writer

import (
	"context"
	"fmt"

	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/domain"
)

// MemoryTable is one table held by MemorySink
type MemoryTable struct {
	Schema *domain.Schema
	Rows   []domain.ParsedRow
}

// MemorySink keeps everything in memory. It backs the schema command and tests.
type MemorySink struct {
	Tables  map[string]*MemoryTable
	Dropped []string

	// FailInsert, when set, is consulted before every insert
	FailInsert func(table string, values []any) error

	widths *WidthTracker
	store  colsize.Store
	closed bool
}

// NewMemorySink creates an empty sink. store may be nil.
func NewMemorySink(store colsize.Store) *MemorySink {
	return &MemorySink{
		Tables: make(map[string]*MemoryTable),
		widths: NewWidthTracker(),
		store:  store,
	}
}

// DropTable implements Sink
func (m *MemorySink) DropTable(ctx context.Context, table string) error {
	m.Dropped = append(m.Dropped, table)
	delete(m.Tables, table)
	return nil
}

// CreateTable implements Sink
func (m *MemorySink) CreateTable(ctx context.Context, schema *domain.Schema) error {
	if _, ok := m.Tables[schema.Table]; ok {
		return nil
	}
	m.Tables[schema.Table] = &MemoryTable{Schema: schema}
	m.widths.Reset(schema)
	return nil
}

// InsertRow implements Sink
func (m *MemorySink) InsertRow(ctx context.Context, table string, values []any) error {
	t, ok := m.Tables[table]
	if !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	if len(values) != t.Schema.Len() {
		return fmt.Errorf("table %s has %d columns, got %d values", table, t.Schema.Len(), len(values))
	}
	if m.FailInsert != nil {
		if err := m.FailInsert(table, values); err != nil {
			return err
		}
	}

	row := make(domain.ParsedRow, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	m.widths.Observe(table, values)
	return nil
}

// Flush implements Sink
func (m *MemorySink) Flush(ctx context.Context) error {
	return nil
}

// Close implements Sink
func (m *MemorySink) Close(ctx context.Context) error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.widths.Persist(ctx, m.store)
}

// Rows returns the rows of table, nil if it does not exist
func (m *MemorySink) Rows(table string) []domain.ParsedRow {
	if t, ok := m.Tables[table]; ok {
		return t.Rows
	}
	return nil
}

// Widths returns the observed column widths of table
func (m *MemorySink) Widths(table string) map[string]int {
	return m.widths.Widths(table)
}
