package dialect

import (
	"strings"
	"time"

	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/logreader"
)

// Log is a multi-line application log format. Every log dialect shares the
// same reassembly and post-parse policy and differs only in the three
// strategies held here.
type Log struct {
	name       string
	table      string
	dateLayout string

	isBoundary logreader.LinePredicate
	isSkip     logreader.LinePredicate
	parse      func(text string) domain.LogRecord

	RetainLongMessages bool
	SkipLevel          string
}

func (l *Log) Name() string  { return l.name }
func (l *Log) Table() string { return l.table }
func (l *Log) isDialect()    {}

// DateLayout is the time layout of the record prefix
func (l *Log) DateLayout() string { return l.dateLayout }

// Reassembler returns a fresh reassembler driven by this dialect's predicates
func (l *Log) Reassembler() *logreader.Reassembler {
	return logreader.NewReassembler(l.isBoundary, l.isSkip)
}

// IsBoundary reports whether line starts a new record
func (l *Log) IsBoundary(line string) bool { return l.isBoundary(line) }

// IsSkip reports whether line is a marker that ends the current record
func (l *Log) IsSkip(line string) bool { return l.isSkip(line) }

// Parse extracts the fields of one logical record. Fields whose delimiters
// are missing stay nil.
func (l *Log) Parse(record *domain.LogicalRecord) domain.LogRecord {
	rec := l.parse(record.Text())
	rec.Line = record.StartLine
	return rec
}

func newLog(name, layout string, opts Options, boundary, skip logreader.LinePredicate, parse func(string) domain.LogRecord) *Log {
	if skip == nil {
		skip = logreader.Never
	}
	return &Log{
		name:               name,
		table:              tableOr(opts, domain.LogTable),
		dateLayout:         layout,
		isBoundary:         boundary,
		isSkip:             skip,
		parse:              parse,
		RetainLongMessages: opts.RetainLongMessages,
		SkipLevel:          opts.SkipLevel,
	}
}

// parseDate returns nil when s does not match layout
func parseDate(layout, s string) *time.Time {
	ts, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

// splitFirstLine separates the header line from the continuation lines
func splitFirstLine(text string) (string, *string) {
	nl := strings.IndexByte(text, '\n')
	if nl == -1 {
		return text, nil
	}
	tail := text[nl+1:]
	return text[:nl], &tail
}

// lineScanner walks a record's first line left to right. A failed
// extraction leaves the position unchanged.
type lineScanner struct {
	s   string
	pos int
}

func (sc *lineScanner) skipSpaces() {
	for sc.pos < len(sc.s) && sc.s[sc.pos] == ' ' {
		sc.pos++
	}
}

// words returns the next n space-separated words as written
func (sc *lineScanner) words(n int) (string, bool) {
	start := sc.pos
	sc.skipSpaces()
	from := sc.pos
	for i := 0; i < n; i++ {
		sc.skipSpaces()
		end := strings.IndexByte(sc.s[sc.pos:], ' ')
		if end == -1 {
			if i == n-1 && sc.pos < len(sc.s) {
				sc.pos = len(sc.s)
				return sc.s[from:], true
			}
			sc.pos = start
			return "", false
		}
		sc.pos += end
	}
	return sc.s[from:sc.pos], true
}

func (sc *lineScanner) word() (string, bool) {
	w, ok := sc.words(1)
	if !ok || w == "" {
		return "", false
	}
	return w, true
}

// bracketed reads "[...]" when it is the next token
func (sc *lineScanner) bracketed() (string, bool) {
	start := sc.pos
	sc.skipSpaces()
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != '[' {
		sc.pos = start
		return "", false
	}
	end := strings.IndexByte(sc.s[sc.pos+1:], ']')
	if end == -1 {
		sc.pos = start
		return "", false
	}
	value := sc.s[sc.pos+1 : sc.pos+1+end]
	sc.pos += end + 2
	return value, true
}

// upTo returns the text before sep and stops in front of it
func (sc *lineScanner) upTo(sep string) (string, bool) {
	idx := strings.Index(sc.s[sc.pos:], sep)
	if idx == -1 {
		return "", false
	}
	value := sc.s[sc.pos : sc.pos+idx]
	sc.pos += idx
	return value, true
}

// literal consumes sep when it is the next token
func (sc *lineScanner) literal(sep string) bool {
	start := sc.pos
	sc.skipSpaces()
	if strings.HasPrefix(sc.s[sc.pos:], sep) {
		sc.pos += len(sep)
		return true
	}
	sc.pos = start
	return false
}

// after returns everything behind the next occurrence of sep
func (sc *lineScanner) after(sep string) (string, bool) {
	idx := strings.Index(sc.s[sc.pos:], sep)
	if idx == -1 {
		return "", false
	}
	sc.pos += idx + len(sep)
	value := sc.s[sc.pos:]
	sc.pos = len(sc.s)
	return value, true
}

func strPtr(s string) *string {
	return &s
}
