package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/dialect"
	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/logreader"
	"github.com/sangupta/fileanalysis/internal/service"
	"github.com/sangupta/fileanalysis/internal/writer"
)

// SchemaOptions holds the flags of the schema command
type SchemaOptions struct {
	Global *GlobalOptions
	Format FormatFlags
	Sample int
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(global *GlobalOptions) *cobra.Command {
	opts := &SchemaOptions{Global: global}

	cmd := &cobra.Command{
		Use:   "schema <format> <file>",
		Short: "Print the schema a file would be loaded with",
		Long: `Infer the schema of a file without touching the configured sink.

With --sample 0 only the header and first data line are read. Otherwise the
whole file is parsed in memory and the first rows are printed as they would
be stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, opts, args[0], args[1])
		},
	}

	opts.Format.register(cmd)
	cmd.Flags().IntVarP(&opts.Sample, "sample", "n", 5, "Number of parsed rows to print")

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions, format, file string) error {
	cfg, err := loadConfig(cmd, opts.Global, &opts.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	d := dialect.Resolve(format, cfg.DialectOptions())
	if _, ok := d.(*dialect.Noop); ok {
		_, _ = fmt.Fprintf(out, "format %q has no handler\n", format)
		return nil
	}

	if opts.Sample <= 0 {
		src, err := logreader.OpenFile(file)
		if err != nil {
			return err
		}
		defer src.Close()

		schema, err := service.InferSchema(ctx, d, src)
		if err != nil {
			return err
		}
		printSchema(out, schema, nil)
		return nil
	}

	sink := writer.NewMemorySink(nil)
	svc, err := service.NewIngestService(sink)
	if err != nil {
		return err
	}

	stats, err := svc.IngestFile(ctx, d, file)
	if err != nil {
		return err
	}

	table := sink.Tables[stats.Table]
	if table == nil {
		return fmt.Errorf("no table was created for %s", file)
	}
	printSchema(out, table.Schema, sink.Widths(stats.Table))

	rows := table.Rows
	if len(rows) > opts.Sample {
		rows = rows[:opts.Sample]
	}
	printRows(out, table.Schema, rows)
	_, _ = fmt.Fprintf(out, "\n%d rows, %d dropped\n", stats.RowsEmitted, stats.DroppedTotal())
	return nil
}

func printSchema(out io.Writer, schema *domain.Schema, widths map[string]int) {
	_, _ = fmt.Fprintf(out, "table %s\n", schema.Table)
	for _, f := range schema.Fields() {
		if w, ok := widths[f.Name]; ok {
			_, _ = fmt.Fprintf(out, "  %-24s %-10s max width %d\n", f.Name, f.Type, w)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %-24s %s\n", f.Name, f.Type)
	}
}

func printRows(out io.Writer, schema *domain.Schema, rows []domain.ParsedRow) {
	if len(rows) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", strings.Join(schema.Names(), " | "))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		_, _ = fmt.Fprintln(out, strings.Join(cells, " | "))
	}
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	s, _ := domain.ColumnLongText.Coerce(v).(string)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len([]rune(s)) > 40 {
		s = string([]rune(s)[:37]) + "..."
	}
	return s
}
