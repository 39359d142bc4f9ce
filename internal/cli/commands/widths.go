package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/colsize"
	"github.com/sangupta/fileanalysis/internal/domain"
)

// WidthsOptions holds the flags of the widths command
type WidthsOptions struct {
	Global *GlobalOptions
	Path   string
}

// NewWidthsCommand creates the widths command.
func NewWidthsCommand(global *GlobalOptions) *cobra.Command {
	opts := &WidthsOptions{Global: global}

	cmd := &cobra.Command{
		Use:   "widths <table>",
		Short: "Print the widest value stored per column of a table",
		Long: `Print the column widths recorded by the last load of a table.

Widths are only recorded when a column size store is configured
(column_size_path or FA_COLUMN_SIZE_PATH).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWidths(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Path, "store", "", "Column size store file (overrides config)")

	return cmd
}

func runWidths(cmd *cobra.Command, opts *WidthsOptions, table string) error {
	cfg, err := loadConfig(cmd, opts.Global, nil)
	if err != nil {
		return err
	}

	path := cfg.ColumnSizePath
	if opts.Path != "" {
		path = opts.Path
	}
	if path == "" {
		return errors.New("no column size store configured")
	}

	store, err := colsize.NewBoltStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	table = domain.SanitizeName(table)
	widths, err := store.Table(ctx, table)
	if err != nil {
		return err
	}
	if len(widths) == 0 {
		return fmt.Errorf("no column widths stored for table %s", table)
	}

	columns := make([]string, 0, len(widths))
	for column := range widths {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	out := cmd.OutOrStdout()
	for _, column := range columns {
		_, _ = fmt.Fprintf(out, "%-24s %d\n", column, widths[column])
	}
	return nil
}
