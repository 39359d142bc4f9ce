package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/domain"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
}

// PostgresSink loads rows into PostgreSQL, one INSERT per row
type PostgresSink struct {
	db   DBTX
	pool *pgxpool.Pool

	tables map[string]*pgTable
	widths *WidthTracker
	store  colsize.Store
	closed bool
}

type pgTable struct {
	schema *domain.Schema
	insert string
}

// NewPostgresSink creates a sink on pool. store may be nil; Close closes pool.
func NewPostgresSink(pool *pgxpool.Pool, store colsize.Store) *PostgresSink {
	s := newPostgresSink(pool, store)
	s.pool = pool
	return s
}

func newPostgresSink(db DBTX, store colsize.Store) *PostgresSink {
	return &PostgresSink{
		db:     db,
		tables: make(map[string]*pgTable),
		widths: NewWidthTracker(),
		store:  store,
	}
}

// DropTable implements Sink
func (p *PostgresSink) DropTable(ctx context.Context, table string) error {
	delete(p.tables, table)
	if _, err := p.db.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// CreateTable implements Sink
func (p *PostgresSink) CreateTable(ctx context.Context, schema *domain.Schema) error {
	if _, err := p.db.Exec(ctx, postgresCreateTableSQL(schema)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
	}

	p.tables[schema.Table] = &pgTable{schema: schema, insert: postgresInsertSQL(schema)}
	p.widths.Reset(schema)

	log.Debug().
		Str("table", schema.Table).
		Int("columns", schema.Len()).
		Msg("PostgreSQL table created")
	return nil
}

// InsertRow implements Sink. ShortText values are cut to the column width.
func (p *PostgresSink) InsertRow(ctx context.Context, table string, values []any) error {
	t, ok := p.tables[table]
	if !ok {
		return fmt.Errorf("table %s was not created in this session", table)
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
		if i < t.schema.Len() && t.schema.Field(i).Type == domain.ColumnShortText {
			args[i] = truncateText(v, domain.ShortTextSize)
		}
	}

	if _, err := p.db.Exec(ctx, t.insert, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	p.widths.Observe(table, values)
	return nil
}

// Flush implements Sink
func (p *PostgresSink) Flush(ctx context.Context) error {
	return nil
}

// Close implements Sink
func (p *PostgresSink) Close(ctx context.Context) error {
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.widths.Persist(ctx, p.store)
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}

func postgresCreateTableSQL(schema *domain.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgx.Identifier{schema.Table}.Sanitize())
	b.WriteString(" (")
	b.WriteString(pgx.Identifier{LineNumColumn}.Sanitize())
	b.WriteString(" BIGSERIAL PRIMARY KEY")
	for _, f := range schema.Fields() {
		b.WriteString(", ")
		b.WriteString(pgx.Identifier{f.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(postgresType(f.Type))
	}
	b.WriteString(")")
	return b.String()
}

func postgresInsertSQL(schema *domain.Schema) string {
	names := make([]string, schema.Len())
	params := make([]string, schema.Len())
	for i, f := range schema.Fields() {
		names[i] = pgx.Identifier{f.Name}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{schema.Table}.Sanitize(),
		strings.Join(names, ", "),
		strings.Join(params, ", "))
}

func postgresType(t domain.ColumnType) string {
	switch t {
	case domain.ColumnInteger:
		return "INTEGER"
	case domain.ColumnLong:
		return "BIGINT"
	case domain.ColumnDouble:
		return "DOUBLE PRECISION"
	case domain.ColumnTimestamp:
		return "TIMESTAMPTZ"
	case domain.ColumnShortText:
		return fmt.Sprintf("VARCHAR(%d)", domain.ShortTextSize)
	default:
		return "TEXT"
	}
}

func truncateText(v any, size int) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	runes := []rune(s)
	if len(runes) <= size {
		return s
	}
	return string(runes[:size])
}
