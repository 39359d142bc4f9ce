package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangupta/fileanalysis/internal/dialect"
	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/logreader"
	"github.com/sangupta/fileanalysis/internal/writer"
)

func ingest(t *testing.T, d dialect.Dialect, input string) (*writer.MemorySink, *domain.IngestStats, error) {
	t.Helper()
	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	stats, err := svc.Ingest(context.Background(), d, logreader.NewReaderSource("test", strings.NewReader(input)))
	return sink, stats, err
}

func TestNewIngestService_NilSink(t *testing.T) {
	_, err := NewIngestService(nil)
	assert.Error(t, err)
}

func TestIngest_CSVWithHeader(t *testing.T) {
	sink, stats, err := ingest(t, dialect.NewCSV(dialect.DefaultOptions()), "name,age\nalice,30\n\nbob,41\n")
	require.NoError(t, err)

	table := sink.Tables[dialect.DataTable]
	require.NotNil(t, table)
	assert.Equal(t, []string{"name", "age"}, table.Schema.Names())
	assert.Equal(t, []domain.ParsedRow{
		{"alice", int64(30)},
		{"bob", int64(41)},
	}, sink.Rows(dialect.DataTable))

	assert.Equal(t, []string{dialect.DataTable}, sink.Dropped)
	assert.Equal(t, uint64(4), stats.LinesRead)
	assert.Equal(t, uint64(2), stats.RecordsParsed)
	assert.Equal(t, uint64(2), stats.RowsEmitted)
	assert.Zero(t, stats.DroppedTotal())
	assert.Equal(t, "csv", stats.Dialect)
	assert.Equal(t, "test", stats.Source)
	assert.NotEmpty(t, stats.SessionID)
}

func TestIngest_NoHeaderReemitsFirstRow(t *testing.T) {
	opts := dialect.DefaultOptions()
	opts.HasHeaderRow = false

	sink, stats, err := ingest(t, dialect.NewCSV(opts), "1,x\n2,y\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"col", "col1"}, sink.Tables[dialect.DataTable].Schema.Names())
	assert.Equal(t, []domain.ParsedRow{
		{int64(1), "x"},
		{int64(2), "y"},
	}, sink.Rows(dialect.DataTable))
	assert.Equal(t, uint64(2), stats.RowsEmitted)
}

func TestIngest_HeaderOnly(t *testing.T) {
	sink, stats, err := ingest(t, dialect.NewCSV(dialect.DefaultOptions()), "a,b\n\n")
	require.NoError(t, err)

	table := sink.Tables[dialect.DataTable]
	require.NotNil(t, table)
	assert.Equal(t, []string{"a", "b"}, table.Schema.Names())
	assert.Empty(t, table.Rows)
	assert.Zero(t, stats.RowsEmitted)
}

func TestIngest_MalformedSchema(t *testing.T) {
	for name, input := range map[string]string{
		"empty":       "",
		"blank first": "   \nname,age\n",
	} {
		t.Run(name, func(t *testing.T) {
			sink, _, err := ingest(t, dialect.NewCSV(dialect.DefaultOptions()), input)
			require.ErrorIs(t, err, domain.ErrMalformedSchema)
			assert.Empty(t, sink.Tables)
			assert.Empty(t, sink.Dropped)
		})
	}
}

func TestIngest_RowShapes(t *testing.T) {
	sink, stats, err := ingest(t, dialect.NewCSV(dialect.DefaultOptions()), "n,s,t\n1,a,b\n2\nx,c,d,extra\n , , \n")
	require.NoError(t, err)

	assert.Equal(t, []domain.ParsedRow{
		{int64(1), "a", "b"},
		{int64(2), nil, nil},
		{int64(0), "c", "d"},
	}, sink.Rows(dialect.DataTable))
	assert.Equal(t, uint64(3), stats.RowsEmitted)
	assert.Equal(t, uint64(1), stats.TruncatedValues)
	assert.Equal(t, uint64(1), stats.UnparseableCount)
	assert.Equal(t, uint64(1), stats.Dropped[domain.DropBlank])
}

func TestIngest_InsertFailureContinues(t *testing.T) {
	sink := writer.NewMemorySink(nil)
	sink.FailInsert = func(table string, values []any) error {
		if values[0] == "bad" {
			return errors.New("constraint violated")
		}
		return nil
	}
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	src := logreader.NewReaderSource("test", strings.NewReader("k\nok\nbad\nfine\n"))
	stats, err := svc.Ingest(context.Background(), dialect.NewCSV(dialect.DefaultOptions()), src)
	require.NoError(t, err)

	assert.Len(t, sink.Rows(dialect.DataTable), 2)
	assert.Equal(t, uint64(2), stats.RowsEmitted)
	assert.Equal(t, uint64(1), stats.Dropped[domain.DropInsertFail])
}

// lossySink loses every row still buffered at Flush, the way a failed
// ClickHouse batch does.
type lossySink struct {
	*writer.MemorySink
	buffered int
	failAt   int
}

func (s *lossySink) InsertRow(ctx context.Context, table string, values []any) error {
	if err := s.MemorySink.InsertRow(ctx, table, values); err != nil {
		return err
	}
	s.buffered++
	if s.failAt > 0 && s.buffered == s.failAt {
		n := s.buffered
		s.buffered = 0
		return &writer.LostRowsError{Table: table, Rows: n, Err: errors.New("batch rejected")}
	}
	return nil
}

func (s *lossySink) Flush(context.Context) error {
	if s.buffered == 0 {
		return nil
	}
	n := s.buffered
	s.buffered = 0
	return errors.Join(&writer.LostRowsError{Table: dialect.DataTable, Rows: n, Err: errors.New("connection reset")})
}

func TestIngest_LostRowsAreNotCountedAsEmitted(t *testing.T) {
	tests := []struct {
		name        string
		failAt      int
		wantEmitted uint64
		wantFailed  uint64
	}{
		{name: "lost at flush", failAt: 0, wantEmitted: 0, wantFailed: 3},
		{name: "lost while inserting", failAt: 2, wantEmitted: 0, wantFailed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &lossySink{MemorySink: writer.NewMemorySink(nil), failAt: tt.failAt}
			svc, err := NewIngestService(sink)
			require.NoError(t, err)

			src := logreader.NewReaderSource("test", strings.NewReader("k\n1\n2\n3\n"))
			stats, err := svc.Ingest(context.Background(), dialect.NewCSV(dialect.DefaultOptions()), src)

			var lost *writer.LostRowsError
			require.ErrorAs(t, err, &lost)
			assert.Equal(t, tt.wantEmitted, stats.RowsEmitted)
			assert.Equal(t, tt.wantFailed, stats.Dropped[domain.DropInsertFail])
		})
	}
}

const logbackInput = `#logback.classic pattern: %d %level [%thread] [%logger] - %msg%n
2020-01-01 10:00:00,000 INFO [main] [com.x.App] - hello
2020-01-01 10:00:01,000 DEBUG [main] [com.x.App] - noise
2020-01-01 10:00:02,000 ERROR [worker-1] [com.x.Job] - boom
java.lang.IllegalStateException: bad
	at com.x.Job.run(Job.java:10)
`

func TestIngest_Logback(t *testing.T) {
	opts := dialect.DefaultOptions()
	opts.SkipLevel = "DEBUG"
	opts.RetainLongMessages = true

	sink, stats, err := ingest(t, dialect.NewLogback(opts), logbackInput)
	require.NoError(t, err)

	rows := sink.Rows(domain.LogTable)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.ParsedRow{
		time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC), "INFO", "main", "com.x.App", int32(2), "hello", "hello", nil,
	}, rows[0])
	assert.Equal(t, domain.ParsedRow{
		time.Date(2020, 1, 1, 10, 0, 2, 0, time.UTC), "ERROR", "worker-1", "com.x.Job", int32(4), "boom", "boom",
		"java.lang.IllegalStateException: bad\n\tat com.x.Job.run(Job.java:10)",
	}, rows[1])

	assert.Equal(t, uint64(6), stats.LinesRead)
	assert.Equal(t, uint64(3), stats.RecordsParsed)
	assert.Equal(t, uint64(2), stats.RowsEmitted)
	assert.Equal(t, uint64(1), stats.Dropped[domain.DropLevel])
}

func TestIngest_LogbackWithoutLongMessages(t *testing.T) {
	sink, stats, err := ingest(t, dialect.NewLogback(dialect.DefaultOptions()), logbackInput)
	require.NoError(t, err)

	rows := sink.Rows(domain.LogTable)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Nil(t, row[6], "message")
		assert.Nil(t, row[7], "error")
	}
	assert.Equal(t, "noise", rows[1][5])
	assert.Zero(t, stats.DroppedTotal())
}

func TestIngest_Log4j(t *testing.T) {
	input := "02 Jan 2020 10:00:00,000 [main] INFO com.x.App - started\n" +
		"continued line\n" +
		"02 Jan 2020 10:00:05,000 [pool-1] [:] WARN com.x.Pool - slow\n"

	sink, _, err := ingest(t, dialect.NewLog4j(dialect.DefaultOptions()), input)
	require.NoError(t, err)

	rows := sink.Rows(domain.LogTable)
	require.Len(t, rows, 2)
	assert.Equal(t, "INFO", rows[0][1])
	assert.Equal(t, "started", rows[0][5])
	assert.Equal(t, int32(1), rows[0][4])
	assert.Equal(t, "WARN", rows[1][1])
	assert.Equal(t, "com.x.Pool", rows[1][3])
	assert.Equal(t, int32(3), rows[1][4])
}

func TestIngest_EmptyLogRecordsDropped(t *testing.T) {
	sink, stats, err := ingest(t, dialect.NewLogback(dialect.DefaultOptions()), "preamble without structure\n")
	require.NoError(t, err)

	assert.Empty(t, sink.Rows(domain.LogTable))
	assert.Equal(t, uint64(1), stats.Dropped[domain.DropEmpty])
}

func TestIngest_ApacheLog(t *testing.T) {
	line := `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326 "http://www.example.com/start.html" "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"`

	sink, stats, err := ingest(t, dialect.NewApacheLog(dialect.DefaultOptions()), line+"\n"+line+"\n")
	require.NoError(t, err)

	rows := sink.Rows(domain.LogTable)
	require.Len(t, rows, 2)
	assert.Equal(t, "127.0.0.1", rows[0][0])
	assert.Equal(t, time.Date(2000, 10, 10, 20, 55, 36, 0, time.UTC), rows[0][3])
	assert.Equal(t, "GET", rows[0][4])
	assert.Equal(t, "/apache_pb.gif", rows[0][5])
	assert.Equal(t, int64(200), rows[0][7])
	assert.Equal(t, uint64(2), stats.RowsEmitted)
}

func TestIngest_Noop(t *testing.T) {
	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	stats, err := svc.IngestFile(context.Background(), &dialect.Noop{Requested: "xml"}, "/does/not/exist")
	require.NoError(t, err)
	assert.Zero(t, stats.RowsEmitted)
	assert.Empty(t, sink.Tables)
}

func TestIngest_NilSource(t *testing.T) {
	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	_, err = svc.Ingest(context.Background(), dialect.NewCSV(dialect.DefaultOptions()), nil)
	assert.ErrorIs(t, err, domain.ErrSourceRead)
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.tsv")
	require.NoError(t, os.WriteFile(path, []byte("name\tage\nalice\t30\n"), 0o644))

	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	stats, err := svc.IngestFile(context.Background(), dialect.NewTSV(dialect.DefaultOptions()), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.RowsEmitted)
	assert.Equal(t, path, stats.Source)

	_, err = svc.IngestFile(context.Background(), dialect.NewTSV(dialect.DefaultOptions()), filepath.Join(t.TempDir(), "missing.tsv"))
	assert.ErrorIs(t, err, domain.ErrSourceRead)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestIngest_SourceFailureKeepsSentRows(t *testing.T) {
	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	input := io.MultiReader(strings.NewReader("a,b\n1,2\n3,4\n"), failingReader{err: errors.New("disk gone")})
	stats, err := svc.Ingest(context.Background(), dialect.NewCSV(dialect.DefaultOptions()), logreader.NewReaderSource("test", input))

	require.ErrorIs(t, err, domain.ErrSourceRead)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, []domain.ParsedRow{
		{int64(1), int64(2)},
		{int64(3), int64(4)},
	}, sink.Rows(dialect.DataTable))
	assert.Equal(t, uint64(2), stats.RowsEmitted)
}

func TestIngest_LogSourceFailureKeepsSentRows(t *testing.T) {
	sink := writer.NewMemorySink(nil)
	svc, err := NewIngestService(sink)
	require.NoError(t, err)

	input := io.MultiReader(strings.NewReader(logbackInput), failingReader{err: errors.New("disk gone")})
	_, err = svc.Ingest(context.Background(), dialect.NewLogback(dialect.DefaultOptions()), logreader.NewReaderSource("test", input))

	require.ErrorIs(t, err, domain.ErrSourceRead)
	// the record still accumulating when the read failed is not flushed
	assert.Len(t, sink.Rows(domain.LogTable), 2)
}

func TestIngest_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, err := NewIngestService(writer.NewMemorySink(nil))
	require.NoError(t, err)

	src := logreader.NewReaderSource("test", strings.NewReader("a\n1\n"))
	_, err = svc.Ingest(ctx, dialect.NewCSV(dialect.DefaultOptions()), src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferSchema(t *testing.T) {
	src := logreader.NewReaderSource("test", strings.NewReader("id|label\n7|x\n"))
	schema, err := InferSchema(context.Background(), dialect.NewPipe(dialect.DefaultOptions()), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"id[long]", "label[str]"}, describeSchema(schema))

	schema, err = InferSchema(context.Background(), dialect.NewLog4j(dialect.DefaultOptions()), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.LogTable, schema.Table)

	schema, err = InferSchema(context.Background(), &dialect.Noop{}, nil)
	require.NoError(t, err)
	assert.Nil(t, schema)
}
