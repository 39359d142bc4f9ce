package dialect

import (
	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/schema"
	"github.com/sangupta/fileanalysis/internal/tokenizer"
)

// DataTable is the default table of delimited dialects
const DataTable = "data"

// Tabular is a line-per-row format whose schema is inferred from the first lines
type Tabular struct {
	name         string
	table        string
	delimiter    string
	hasHeaderRow bool
	tokenize     func(line string) []string
	infer        func(table string, header, sample []string) (*domain.Schema, error)
}

func (t *Tabular) Name() string  { return t.name }
func (t *Tabular) Table() string { return t.table }
func (t *Tabular) isDialect()    {}

// Delimiter returns the literal field separator. Empty for quote-aware formats.
func (t *Tabular) Delimiter() string { return t.delimiter }

// HasHeaderRow reports whether the first line holds column names
func (t *Tabular) HasHeaderRow() bool { return t.hasHeaderRow }

// Tokenize splits one line into raw field values
func (t *Tabular) Tokenize(line string) []string {
	return t.tokenize(line)
}

// InferSchema builds the table schema from the header tokens (nil without a
// header row) and the first data row tokens (nil when there is none).
func (t *Tabular) InferSchema(header, sample []string) (*domain.Schema, error) {
	return t.infer(t.table, header, sample)
}

func newDelimited(name, delimiter string, opts Options) *Tabular {
	return &Tabular{
		name:         name,
		table:        tableOr(opts, DataTable),
		delimiter:    delimiter,
		hasHeaderRow: opts.HasHeaderRow,
		tokenize: func(line string) []string {
			return tokenizer.SplitByLiteral(line, delimiter)
		},
		infer: schema.InferTabular,
	}
}

// NewCSV splits on commas
func NewCSV(opts Options) *Tabular {
	return newDelimited("csv", ",", opts)
}

// NewTSV splits on tabs
func NewTSV(opts Options) *Tabular {
	return newDelimited("tsv", "\t", opts)
}

// NewPipe splits on '|'
func NewPipe(opts Options) *Tabular {
	return newDelimited("pipe", "|", opts)
}

// NewDelimited splits on the configured delimiter, a comma when none is set
func NewDelimited(opts Options) *Tabular {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = ","
	}
	return newDelimited("delimited", delimiter, opts)
}
