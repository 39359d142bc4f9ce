package commands

import (
	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/config"
)

// GlobalOptions holds the flags shared by every command
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// FormatFlags override the format section of the configuration
type FormatFlags struct {
	NoHeader   bool
	Delimiter  string
	RetainLong bool
	SkipLevel  string
	Table      string
}

func (f *FormatFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.NoHeader, "no-header", false, "First line is data, not column names")
	flags.StringVarP(&f.Delimiter, "delimiter", "d", "", `Delimiter of the "delimited" format (\t for tab)`)
	flags.BoolVar(&f.RetainLong, "retain-long", false, "Keep full log messages and stack traces")
	flags.StringVar(&f.SkipLevel, "skip-level", "", "Drop log records with this level (e.g. DEBUG)")
	flags.StringVar(&f.Table, "table", "", "Target table name")
}

// loadConfig loads the configuration with the flags the user set applied
// on top of file and environment. overrides run last.
func loadConfig(cmd *cobra.Command, global *GlobalOptions, format *FormatFlags, overrides ...func(*config.Config)) (*config.Config, error) {
	flags := cmd.Flags()

	applyFlags := func(cfg *config.Config) {
		if global.LogLevel != "" {
			cfg.LogLevel = global.LogLevel
		}

		if format != nil {
			if flags.Changed("no-header") {
				cfg.Format.HasHeaderRow = !format.NoHeader
			}
			if flags.Changed("delimiter") {
				cfg.Format.Delimiter = format.Delimiter
			}
			if flags.Changed("retain-long") {
				cfg.Format.RetainLongMessages = format.RetainLong
			}
			if flags.Changed("skip-level") {
				cfg.Format.SkipLevel = format.SkipLevel
			}
			if flags.Changed("table") {
				cfg.Format.Table = format.Table
			}
		}

		for _, override := range overrides {
			override(cfg)
		}
	}

	cfg, err := config.Load(global.ConfigPath, applyFlags)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
