package dialect

import (
	"strings"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// LogbackDateLayout is the default logback %d pattern
const LogbackDateLayout = "2006-01-02 15:04:05,000"

// LogbackBanner starts the status lines logback writes on configuration
const LogbackBanner = "#logback"

// NewLogback reads "DATE TIME LEVEL [thread] [class] - message" records
func NewLogback(opts Options) *Log {
	return newLog("logback", LogbackDateLayout, opts, isLogbackBoundary, isLogbackBanner, parseLogback)
}

func isLogbackBoundary(line string) bool {
	sc := lineScanner{s: line}
	date, ok := sc.words(2)
	return ok && parseDate(LogbackDateLayout, date) != nil
}

func isLogbackBanner(line string) bool {
	return strings.HasPrefix(line, LogbackBanner)
}

func parseLogback(text string) domain.LogRecord {
	first, tail := splitFirstLine(text)
	rec := domain.LogRecord{ErrorTail: tail}
	sc := lineScanner{s: first}

	if date, ok := sc.words(2); ok {
		rec.Date = parseDate(LogbackDateLayout, date)
	}
	if level, ok := sc.word(); ok {
		rec.Level = strPtr(level)
	}
	if thread, ok := sc.bracketed(); ok {
		rec.Thread = strPtr(thread)
	}
	if class, ok := sc.bracketed(); ok {
		rec.Class = strPtr(class)
	}
	if msg, ok := sc.after("-"); ok {
		rec.Msg = strPtr(msg)
	}
	return rec
}
