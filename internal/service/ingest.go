// Package service runs ingestion sessions: one source, one dialect, one sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sangupta/fileanalysis/internal/dialect"
	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/logreader"
	"github.com/sangupta/fileanalysis/internal/observability"
	"github.com/sangupta/fileanalysis/internal/writer"
)

// IngestService loads sources into a sink. It is the only component that
// knows both the dialects and the sink. Sessions are sequential; an
// IngestService must not be shared between goroutines.
type IngestService struct {
	sink writer.Sink
}

// NewIngestService creates the service on sink
func NewIngestService(sink writer.Sink) (*IngestService, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	return &IngestService{sink: sink}, nil
}

// IngestFile opens path, ingests it and closes it on every path.
// The no-op dialect never opens the file.
func (s *IngestService) IngestFile(ctx context.Context, d dialect.Dialect, path string) (*domain.IngestStats, error) {
	if _, ok := d.(*dialect.Noop); ok {
		return s.Ingest(ctx, d, nil)
	}

	src, err := logreader.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("file", path).Msg("Failed to close source")
		}
	}()

	return s.Ingest(ctx, d, src)
}

// Ingest runs one session. Rows already handed to the sink stay there when
// the session fails; the sink is flushed but not closed.
func (s *IngestService) Ingest(ctx context.Context, d dialect.Dialect, src logreader.LineSource) (*domain.IngestStats, error) {
	source := ""
	if src != nil {
		source = src.Name()
	}
	stats := domain.NewIngestStats(uuid.NewString(), d.Name(), source)
	stats.Table = d.Table()

	logger := log.With().
		Str("session_id", stats.SessionID).
		Str("dialect", stats.Dialect).
		Str("source", source).
		Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, "ingest.session",
		attribute.String("session_id", stats.SessionID),
		attribute.String("dialect", stats.Dialect),
		attribute.String("source", source),
	)

	logger.Info().Str("table", stats.Table).Msg("Ingestion started")

	var err error
	if _, noop := d.(*dialect.Noop); !noop && src == nil {
		err = fmt.Errorf("%w: no line source", domain.ErrSourceRead)
	}

	switch v := d.(type) {
	case *dialect.Tabular:
		if err == nil {
			err = s.ingestTabular(ctx, v, src, stats)
		}
	case *dialect.Log:
		if err == nil {
			err = s.ingestLog(ctx, v, src, stats)
		}
	case *dialect.Noop:
		logger.Warn().Str("requested", v.Requested).Msg("Format has no handler, nothing ingested")
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownDialect, d)
	}

	if ferr := s.sink.Flush(ctx); ferr != nil {
		unemit(stats, lostRows(ferr))
		logger.Error().Err(ferr).Msg("Failed to flush sink")
		if err == nil {
			err = fmt.Errorf("failed to flush sink: %w", ferr)
		}
	}

	stats.EndTime = time.Now()
	span.SetAttributes(
		attribute.String("table", stats.Table),
		attribute.Int64("lines_read", int64(stats.LinesRead)),
		attribute.Int64("rows_emitted", int64(stats.RowsEmitted)),
		attribute.Int64("rows_dropped", int64(stats.DroppedTotal())),
	)
	observability.EndSpan(span, err)
	logSummary(ctx, stats, err)

	return stats, err
}

func (s *IngestService) createTable(ctx context.Context, schema *domain.Schema) (err error) {
	ctx, span := observability.StartSpan(ctx, "ingest.schema",
		attribute.String("table", schema.Table),
		attribute.Int("columns", schema.Len()),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.sink.DropTable(ctx, schema.Table); err != nil {
		return err
	}
	if err := s.sink.CreateTable(ctx, schema); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("table", schema.Table).
		Strs("columns", describeSchema(schema)).
		Msg("Table created")
	return nil
}

// emit aligns, coerces and stores one row
func (s *IngestService) emit(ctx context.Context, schema *domain.Schema, values []any, stats *domain.IngestStats) {
	row, cut := schema.Row(values)
	if cut > 0 {
		stats.TruncatedValues += uint64(cut)
		log.Ctx(ctx).Debug().Int("values", cut).Msg("Values beyond schema width dropped")
	}

	if row.IsBlank() {
		stats.Drop(domain.DropBlank)
		return
	}

	if n := schema.Coerce(row); n > 0 {
		stats.UnparseableCount += uint64(n)
		log.Ctx(ctx).Debug().Int("values", n).Msg("Unparseable values replaced by defaults")
	}

	if err := s.sink.InsertRow(ctx, schema.Table, row); err != nil {
		stats.Drop(domain.DropInsertFail)
		// earlier rows of a lost batch were already counted as emitted
		if n := lostRows(err); n > 1 {
			unemit(stats, n-1)
		}
		log.Ctx(ctx).Warn().Err(err).Str("table", schema.Table).Msg("Failed to insert row")
		return
	}
	stats.RowsEmitted++
}

// lostRows sums the rows reported by every *writer.LostRowsError in err
func lostRows(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += lostRows(e)
		}
		return n
	}
	var lost *writer.LostRowsError
	if errors.As(err, &lost) {
		return lost.Rows
	}
	return 0
}

// unemit moves n rows the sink lost from emitted to insert_failed
func unemit(stats *domain.IngestStats, n int) {
	if n <= 0 {
		return
	}
	k := uint64(n)
	if k > stats.RowsEmitted {
		k = stats.RowsEmitted
	}
	stats.RowsEmitted -= k
	stats.Dropped[domain.DropInsertFail] += k
}

func (s *IngestService) ingestTabular(ctx context.Context, d *dialect.Tabular, src logreader.LineSource, stats *domain.IngestStats) error {
	next := func() (domain.RawLine, bool, error) {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return domain.RawLine{}, false, nil
		}
		if err != nil {
			return domain.RawLine{}, false, err
		}
		stats.LinesRead++
		return line, true, nil
	}

	schema, sample, err := inferTabular(d, next)
	if err != nil {
		return err
	}
	stats.Table = schema.Table

	if err := s.createTable(ctx, schema); err != nil {
		return err
	}

	if sample != nil {
		stats.RecordsParsed++
		s.emit(ctx, schema, toValues(sample), stats)
	}

	for {
		line, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if strings.TrimSpace(line.Text) == "" {
			continue
		}

		stats.RecordsParsed++
		s.emit(ctx, schema, toValues(d.Tokenize(line.Text)), stats)
	}
}

// inferTabular reads the header and sample lines. The returned sample tokens
// are a data row still to be stored; nil when the source has no data row.
func inferTabular(d *dialect.Tabular, next func() (domain.RawLine, bool, error)) (*domain.Schema, []string, error) {
	first, ok, err := next()
	if err != nil {
		return nil, nil, err
	}
	if !ok || strings.TrimSpace(first.Text) == "" {
		return nil, nil, fmt.Errorf("%w: first line of source is missing or blank", domain.ErrMalformedSchema)
	}

	var header, sample []string
	if d.HasHeaderRow() {
		header = d.Tokenize(first.Text)
		for {
			line, ok, err := next()
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				break
			}
			if strings.TrimSpace(line.Text) != "" {
				sample = d.Tokenize(line.Text)
				break
			}
		}
	} else {
		sample = d.Tokenize(first.Text)
	}

	schema, err := d.InferSchema(header, sample)
	if err != nil {
		return nil, nil, err
	}
	return schema, sample, nil
}

func (s *IngestService) ingestLog(ctx context.Context, d *dialect.Log, src logreader.LineSource, stats *domain.IngestStats) error {
	schema := domain.LogSchema(d.Table())
	if err := s.createTable(ctx, schema); err != nil {
		return err
	}

	policy := LogPolicy{RetainLongMessages: d.RetainLongMessages, SkipLevel: d.SkipLevel}

	lines, err := d.Reassembler().Run(ctx, src, func(record *domain.LogicalRecord) error {
		stats.RecordsParsed++

		rec := d.Parse(record)
		if reason := policy.Apply(&rec); reason != "" {
			stats.Drop(reason)
			return nil
		}

		s.emit(ctx, schema, rec.Values(), stats)
		return nil
	})
	stats.LinesRead += uint64(lines)
	return err
}

// InferSchema reads just enough of src to report the schema a session would
// create. It returns nil for the no-op dialect.
func InferSchema(ctx context.Context, d dialect.Dialect, src logreader.LineSource) (*domain.Schema, error) {
	switch v := d.(type) {
	case *dialect.Tabular:
		next := func() (domain.RawLine, bool, error) {
			line, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return domain.RawLine{}, false, nil
			}
			return line, err == nil, err
		}
		schema, _, err := inferTabular(v, next)
		return schema, err
	case *dialect.Log:
		return domain.LogSchema(v.Table()), nil
	default:
		return nil, nil
	}
}

func toValues(tokens []string) []any {
	values := make([]any, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}
	return values
}

func describeSchema(schema *domain.Schema) []string {
	fields := schema.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.String()
	}
	return out
}

func logSummary(ctx context.Context, stats *domain.IngestStats, err error) {
	event := log.Ctx(ctx).Info()
	if err != nil {
		event = log.Ctx(ctx).Error().Err(err)
	}

	event.
		Str("table", stats.Table).
		Uint64("lines_read", stats.LinesRead).
		Uint64("records", stats.RecordsParsed).
		Uint64("rows_emitted", stats.RowsEmitted).
		Uint64("rows_dropped", stats.DroppedTotal()).
		Interface("dropped", stats.Dropped).
		Uint64("unparseable_values", stats.UnparseableCount).
		Uint64("truncated_values", stats.TruncatedValues).
		Uint64("insert_failures", stats.Dropped[domain.DropInsertFail]).
		Dur("duration", stats.Duration()).
		Float64("rows_per_second", stats.RowsPerSecond()).
		Msg("Ingestion finished")
}
