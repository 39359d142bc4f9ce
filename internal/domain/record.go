package domain

import (
	"strings"
	"time"
)

// RawLine is one physical line of source text with its 1-based position
type RawLine struct {
	Number int
	Text   string
}

// LogicalRecord is one or more physical lines forming a single log entry
type LogicalRecord struct {
	StartLine int
	lines     []string
}

// NewLogicalRecord starts a record with its first line
func NewLogicalRecord(line RawLine) *LogicalRecord {
	return &LogicalRecord{StartLine: line.Number, lines: []string{line.Text}}
}

// Append adds a continuation line
func (r *LogicalRecord) Append(line RawLine) {
	r.lines = append(r.lines, line.Text)
}

// LineCount returns the number of physical lines in the record
func (r *LogicalRecord) LineCount() int {
	return len(r.lines)
}

// Text returns the record lines joined by newlines
func (r *LogicalRecord) Text() string {
	return strings.Join(r.lines, "\n")
}

// LogRecord holds the fields a log dialect extracts from one logical record.
// A nil pointer means the field could not be located.
type LogRecord struct {
	Date      *time.Time
	Level     *string
	Thread    *string
	Class     *string
	Line      int
	Msg       *string // inline message, at most ShortTextSize characters
	Message   *string // full message, kept only when long text is retained
	ErrorTail *string // lines after the first one (stack trace)
}

// IsEmpty reports whether the record carries no message, thread or date
func (r *LogRecord) IsEmpty() bool {
	return r.Msg == nil && r.Thread == nil && r.Date == nil
}

// Values returns the record in LogSchema column order
func (r *LogRecord) Values() []any {
	var date any
	if r.Date != nil {
		date = *r.Date
	}
	return []any{date, r.Level, r.Thread, r.Class, r.Line, r.Msg, r.Message, r.ErrorTail}
}

// LogTable is the default table name of log dialects
const LogTable = "logs"

// LogSchema returns the fixed schema shared by all log dialects
func LogSchema(table string) *Schema {
	if table == "" {
		table = LogTable
	}
	s := NewSchema(table)
	s.AddField("date", ColumnTimestamp)
	s.AddField("level", ColumnShortText)
	s.AddField("thread", ColumnShortText)
	s.AddField("class", ColumnShortText)
	s.AddField("line", ColumnInteger)
	s.AddField("msg", ColumnShortText)
	s.AddField("message", ColumnLongText)
	s.AddField("error", ColumnLongText)
	s.Freeze()
	return s
}

// ParsedRow is one row of typed values aligned with a Schema
type ParsedRow []any

// IsBlank reports whether every value is nil or a blank string
func (r ParsedRow) IsBlank() bool {
	for _, v := range r {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(x) != "" {
				return false
			}
		case *string:
			if x != nil && strings.TrimSpace(*x) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
