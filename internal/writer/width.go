package writer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/domain"
)

// WidthTracker records the widest trimmed value seen per column
type WidthTracker struct {
	columns map[string][]string
	widths  map[string]map[string]int
}

// NewWidthTracker creates an empty tracker
func NewWidthTracker() *WidthTracker {
	return &WidthTracker{
		columns: make(map[string][]string),
		widths:  make(map[string]map[string]int),
	}
}

// Reset starts tracking a freshly created table
func (w *WidthTracker) Reset(schema *domain.Schema) {
	names := schema.Names()
	w.columns[schema.Table] = names

	widths := make(map[string]int, len(names))
	for _, name := range names {
		widths[name] = 0
	}
	w.widths[schema.Table] = widths
}

// Observe updates the widths of table with one row
func (w *WidthTracker) Observe(table string, values []any) {
	names, ok := w.columns[table]
	if !ok {
		return
	}

	widths := w.widths[table]
	for i := 0; i < len(values) && i < len(names); i++ {
		if n := ValueWidth(values[i]); n > widths[names[i]] {
			widths[names[i]] = n
		}
	}
}

// Widths returns a copy of the widths of table
func (w *WidthTracker) Widths(table string) map[string]int {
	out := make(map[string]int, len(w.widths[table]))
	for k, v := range w.widths[table] {
		out[k] = v
	}
	return out
}

// Tables returns the tracked tables sorted by name
func (w *WidthTracker) Tables() []string {
	tables := make([]string, 0, len(w.columns))
	for t := range w.columns {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// Persist writes every tracked table to store. A nil store is a no-op.
func (w *WidthTracker) Persist(ctx context.Context, store colsize.Store) error {
	if store == nil {
		return nil
	}

	for _, table := range w.Tables() {
		if err := store.SetTable(ctx, table, w.Widths(table)); err != nil {
			return fmt.Errorf("failed to persist column sizes: %w", err)
		}
	}

	log.Debug().Int("tables", len(w.columns)).Msg("Column sizes persisted")
	return nil
}

// ValueWidth is the character count of the trimmed text form of v, 0 for nil
func ValueWidth(v any) int {
	text, ok := domain.ColumnLongText.Coerce(v).(string)
	if !ok {
		return 0
	}
	return utf8.RuneCountInString(strings.TrimSpace(text))
}
