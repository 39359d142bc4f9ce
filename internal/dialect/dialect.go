// Package dialect defines the closed set of input formats. A dialect is
// chosen once per session and carries every format-specific strategy the
// ingestion pipeline needs.
package dialect

// Dialect is one of *Tabular, *Log or *Noop
type Dialect interface {
	// Name is the registry name of the dialect
	Name() string

	// Table is the name of the table rows are loaded into
	Table() string

	isDialect()
}

// Options configures a dialect at session start
type Options struct {
	// tabular
	HasHeaderRow bool
	Delimiter    string

	// log
	RetainLongMessages bool
	SkipLevel          string

	// Table overrides the dialect's default table name when set
	Table string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		HasHeaderRow: true,
		Delimiter:    ",",
	}
}

func tableOr(opts Options, fallback string) string {
	if opts.Table != "" {
		return opts.Table
	}
	return fallback
}

// Noop ingests nothing. It stands in for formats without a handler.
type Noop struct {
	Requested string
}

func (n *Noop) Name() string  { return "noop" }
func (n *Noop) Table() string { return "" }
func (n *Noop) isDialect()    {}
