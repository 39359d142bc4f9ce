package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sangupta/fileanalysis/internal/domain"
)

type factory struct {
	description string
	build       func(Options) Dialect
}

var registry = map[string]factory{
	"csv":       {"comma separated values", func(o Options) Dialect { return NewCSV(o) }},
	"tsv":       {"tab separated values", func(o Options) Dialect { return NewTSV(o) }},
	"pipe":      {"pipe separated values", func(o Options) Dialect { return NewPipe(o) }},
	"delimited": {"values separated by a configurable delimiter", func(o Options) Dialect { return NewDelimited(o) }},
	"apache":    {"Apache common/combined access log", func(o Options) Dialect { return NewApacheLog(o) }},
	"log4j":     {"log4j text log with multi-line entries", func(o Options) Dialect { return NewLog4j(o) }},
	"logback":   {"logback text log with multi-line entries", func(o Options) Dialect { return NewLogback(o) }},
}

var aliases = map[string]string{
	"apachelog": "apache",
	"combined":  "apache",
	"delim":     "delimited",
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[name]; ok {
		return target
	}
	return name
}

// Lookup returns the named dialect or an error wrapping domain.ErrUnknownDialect
func Lookup(name string, opts Options) (Dialect, error) {
	f, ok := registry[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDialect, name)
	}
	return f.build(opts), nil
}

// Resolve is Lookup with a fallback to Noop for unknown names
func Resolve(name string, opts Options) Dialect {
	d, err := Lookup(name, opts)
	if err != nil {
		log.Warn().Str("dialect", name).Msg("No handler for format, nothing will be ingested")
		return &Noop{Requested: name}
	}
	return d
}

// Info describes one registered dialect
type Info struct {
	Name        string
	Description string
}

// Registered lists the registered dialects sorted by name
func Registered() []Info {
	out := make([]Info, 0, len(registry))
	for name, f := range registry {
		out = append(out, Info{Name: name, Description: f.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
