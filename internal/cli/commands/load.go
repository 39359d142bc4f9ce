package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/config"
	"github.com/sangupta/fileanalysis/internal/dialect"
	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/observability"
	"github.com/sangupta/fileanalysis/internal/service"
	"github.com/sangupta/fileanalysis/internal/writer"
)

// LoadOptions holds the flags of the load command
type LoadOptions struct {
	Global *GlobalOptions
	Format FormatFlags
	Sink   string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(global *GlobalOptions) *cobra.Command {
	opts := &LoadOptions{Global: global}

	cmd := &cobra.Command{
		Use:   "load <format> <file>...",
		Short: "Load files into the configured sink",
		Long: `Load one or more files of the given format. Each file replaces the
table it targets: the table is dropped, created from the inferred schema
and filled with every record of the file. Files are loaded one after
another; files ending in .gz are decompressed.

An unknown format loads nothing and is not an error.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0], args[1:])
		},
	}

	opts.Format.register(cmd)
	cmd.Flags().StringVar(&opts.Sink, "sink", "", "Sink: memory, clickhouse or postgres")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions, format string, files []string) error {
	cfg, err := loadConfig(cmd, opts.Global, &opts.Format, func(c *config.Config) {
		if opts.Sink != "" {
			c.Sink = opts.Sink
		}
	})
	if err != nil {
		return err
	}

	closeLog := observability.InitLogger(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracer(ctx, cfg.TracerConfig(Version))
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	sink, err := writer.Open(ctx, cfg.SinkOptions())
	if err != nil {
		return fmt.Errorf("failed to open sink: %w", err)
	}
	defer func() {
		if err := sink.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close sink")
		}
	}()

	svc, err := service.NewIngestService(sink)
	if err != nil {
		return err
	}

	return loadFiles(ctx, cmd.OutOrStdout(), svc, cfg, format, files)
}

func loadFiles(ctx context.Context, out io.Writer, svc *service.IngestService, cfg *config.Config, format string, files []string) error {
	d := dialect.Resolve(format, cfg.DialectOptions())

	failed := 0
	for _, file := range files {
		stats, err := svc.IngestFile(ctx, d, file)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			_, _ = fmt.Fprintf(out, "%s: %v\n", file, err)
			continue
		}
		printStats(out, file, format, stats)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to load", failed, len(files))
	}
	return nil
}

func printStats(out io.Writer, file, format string, stats *domain.IngestStats) {
	if stats.Table == "" {
		_, _ = fmt.Fprintf(out, "%s: format %q has no handler, nothing loaded\n", file, format)
		return
	}
	_, _ = fmt.Fprintf(out, "%s: %d rows into %s (%d lines, %d dropped, %d unparseable values) in %s\n",
		file, stats.RowsEmitted, stats.Table, stats.LinesRead, stats.DroppedTotal(),
		stats.UnparseableCount, stats.Duration().Round(time.Millisecond))
}
