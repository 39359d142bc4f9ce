package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/domain"
)

// ClickHouse DateTime64 valid range: 1925-01-01 to 2283-11-11
var (
	minClickHouseDateTime = time.Date(1925, 1, 1, 0, 0, 0, 0, time.UTC)
	maxClickHouseDateTime = time.Date(2283, 11, 11, 23, 59, 59, 999999999, time.UTC)
)

// rowBatch is the part of driver.Batch the sink needs
type rowBatch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// BatchConfig configures batch behavior
type BatchConfig struct {
	Database string
	MaxSize  int // rows per INSERT
}

// ClickHouseSink loads rows into ClickHouse MergeTree tables in batches
type ClickHouseSink struct {
	exec    func(ctx context.Context, query string, args ...any) error
	prepare func(ctx context.Context, query string) (rowBatch, error)
	cfg     BatchConfig

	tables  map[string]*chTable
	widths  *WidthTracker
	store   colsize.Store
	closeFn func() error
	closed  bool
}

type chTable struct {
	schema  *domain.Schema
	batch   rowBatch
	pending int
	linenum uint64
}

// NewClickHouseSink creates a sink on an open connection.
// store may be nil; Close closes conn.
func NewClickHouseSink(conn driver.Conn, cfg BatchConfig, store colsize.Store) *ClickHouseSink {
	s := newClickHouseSink(conn.Exec, func(ctx context.Context, query string) (rowBatch, error) {
		return conn.PrepareBatch(ctx, query)
	}, cfg, store)
	s.closeFn = conn.Close
	return s
}

func newClickHouseSink(
	exec func(ctx context.Context, query string, args ...any) error,
	prepare func(ctx context.Context, query string) (rowBatch, error),
	cfg BatchConfig,
	store colsize.Store,
) *ClickHouseSink {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	return &ClickHouseSink{
		exec:    exec,
		prepare: prepare,
		cfg:     cfg,
		tables:  make(map[string]*chTable),
		widths:  NewWidthTracker(),
		store:   store,
	}
}

// DropTable implements Sink
func (w *ClickHouseSink) DropTable(ctx context.Context, table string) error {
	delete(w.tables, table)
	if err := w.exec(ctx, "DROP TABLE IF EXISTS "+w.qualified(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// CreateTable implements Sink
func (w *ClickHouseSink) CreateTable(ctx context.Context, schema *domain.Schema) error {
	if err := w.exec(ctx, w.createTableSQL(schema)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
	}

	w.tables[schema.Table] = &chTable{schema: schema}
	w.widths.Reset(schema)

	log.Debug().
		Str("table", schema.Table).
		Int("columns", schema.Len()).
		Msg("ClickHouse table created")
	return nil
}

// InsertRow implements Sink. Rows are sent once MaxSize of them are buffered;
// a failed send loses the whole batch and is reported as *LostRowsError.
func (w *ClickHouseSink) InsertRow(ctx context.Context, table string, values []any) error {
	t, ok := w.tables[table]
	if !ok {
		return fmt.Errorf("table %s was not created in this session", table)
	}

	if t.batch == nil {
		batch, err := w.prepare(ctx, "INSERT INTO "+w.qualified(table))
		if err != nil {
			return fmt.Errorf("failed to prepare batch: %w", err)
		}
		t.batch = batch
	}

	args := make([]any, 0, len(values)+1)
	args = append(args, t.linenum+1)
	for _, v := range values {
		args = append(args, clickhouseValue(v))
	}

	if err := t.batch.Append(args...); err != nil {
		return fmt.Errorf("failed to append to batch: %w", err)
	}
	t.linenum++
	t.pending++
	w.widths.Observe(table, values)

	if t.pending >= w.cfg.MaxSize {
		return w.send(table, t)
	}
	return nil
}

func (w *ClickHouseSink) send(table string, t *chTable) error {
	if t.batch == nil {
		return nil
	}

	batch, rows := t.batch, t.pending
	t.batch = nil
	t.pending = 0

	startTime := time.Now()
	if err := batch.Send(); err != nil {
		batch.Abort()
		return &LostRowsError{Table: table, Rows: rows, Err: fmt.Errorf("failed to send batch: %w", err)}
	}

	log.Debug().
		Str("table", table).
		Int("rows", rows).
		Dur("duration", time.Since(startTime)).
		Msg("Batch sent to ClickHouse")
	return nil
}

// Flush implements Sink. Every table is sent; failures are joined.
func (w *ClickHouseSink) Flush(ctx context.Context) error {
	var errs []error
	for table, t := range w.tables {
		if err := w.send(table, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink
func (w *ClickHouseSink) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.Flush(ctx)
	if perr := w.widths.Persist(ctx, w.store); perr != nil && err == nil {
		err = perr
	}
	if w.closeFn != nil {
		if cerr := w.closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (w *ClickHouseSink) qualified(table string) string {
	if w.cfg.Database == "" {
		return quoteClickHouse(table)
	}
	return quoteClickHouse(w.cfg.Database) + "." + quoteClickHouse(table)
}

func (w *ClickHouseSink) createTableSQL(schema *domain.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(w.qualified(schema.Table))
	b.WriteString(" (\n    ")
	b.WriteString(quoteClickHouse(LineNumColumn))
	b.WriteString(" UInt64")
	for _, f := range schema.Fields() {
		b.WriteString(",\n    ")
		b.WriteString(quoteClickHouse(f.Name))
		b.WriteString(" ")
		b.WriteString(clickhouseType(f.Type))
	}
	b.WriteString("\n) ENGINE = MergeTree\nORDER BY ")
	b.WriteString(quoteClickHouse(LineNumColumn))
	return b.String()
}

func clickhouseType(t domain.ColumnType) string {
	switch t {
	case domain.ColumnInteger:
		return "Int32"
	case domain.ColumnLong:
		return "Int64"
	case domain.ColumnDouble:
		return "Float64"
	case domain.ColumnTimestamp:
		return "Nullable(DateTime64(3, 'UTC'))"
	default:
		return "Nullable(String)"
	}
}

// clickhouseValue maps timestamps outside the DateTime64 range to NULL
func clickhouseValue(v any) any {
	ts, ok := v.(time.Time)
	if !ok {
		return v
	}
	if ts.Before(minClickHouseDateTime) || ts.After(maxClickHouseDateTime) {
		return nil
	}
	return ts
}

func quoteClickHouse(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}
