package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/clickhouse"
	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/retry"
)

// Sink kinds accepted by Open
const (
	KindMemory     = "memory"
	KindClickHouse = "clickhouse"
	KindPostgres   = "postgres"
)

// Options selects and configures a sink
type Options struct {
	Kind string

	ClickHouse clickhouse.Options
	BatchSize  int

	PostgresDSN      string
	PostgresMaxConns int32

	Retry retry.Config

	// ColumnSizePath is the bbolt file column widths are persisted to; empty disables persistence
	ColumnSizePath string
}

// Open connects the configured sink. Connection setup is retried; nothing else is.
func Open(ctx context.Context, opts Options) (Sink, error) {
	var store colsize.Store
	if opts.ColumnSizePath != "" {
		bolt, err := colsize.NewBoltStore(opts.ColumnSizePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open column size store: %w", err)
		}
		store = bolt
	}

	sink, err := openSink(ctx, opts, store)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	log.Info().Str("sink", opts.Kind).Msg("Sink opened")

	if store == nil {
		return sink, nil
	}
	return &storeClosingSink{Sink: sink, store: store}, nil
}

func openSink(ctx context.Context, opts Options, store colsize.Store) (Sink, error) {
	switch opts.Kind {
	case KindMemory, "":
		return NewMemorySink(store), nil

	case KindClickHouse:
		client, err := clickhouse.NewClientWithRetry(ctx, opts.ClickHouse, opts.Retry)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureDatabase(ctx, opts.ClickHouse.Database); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create database %s: %w", opts.ClickHouse.Database, err)
		}
		return NewClickHouseSink(client.Conn(), BatchConfig{
			Database: opts.ClickHouse.Database,
			MaxSize:  opts.BatchSize,
		}, store), nil

	case KindPostgres:
		pool, err := openPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewPostgresSink(pool, store), nil

	default:
		return nil, fmt.Errorf("unknown sink %q", opts.Kind)
	}
}

func openPostgres(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if opts.PostgresMaxConns > 0 {
		poolConfig.MaxConns = opts.PostgresMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := retry.Do(ctx, opts.Retry, func() error {
		return pool.Ping(ctx)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("database", poolConfig.ConnConfig.Database).
		Str("host", poolConfig.ConnConfig.Host).
		Msg("Connected to PostgreSQL")

	return pool, nil
}

// storeClosingSink closes the column size store after the sink
type storeClosingSink struct {
	Sink
	store colsize.Store
}

func (s *storeClosingSink) Close(ctx context.Context) error {
	err := s.Sink.Close(ctx)
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close column size store: %w", cerr)
	}
	return err
}
