package dialect

import (
	"strings"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// Log4jDateLayout is the log4j "dd MMM yyyy HH:mm:ss,SSS" date pattern
const Log4jDateLayout = "02 Jan 2006 15:04:05,000"

// NewLog4j reads "DATE [thread] [:] LEVEL class - message" records
func NewLog4j(opts Options) *Log {
	return newLog("log4j", Log4jDateLayout, opts, isLog4jBoundary, nil, parseLog4j)
}

func isLog4jBoundary(line string) bool {
	start := strings.IndexByte(line, '[')
	return start != -1 && parseDate(Log4jDateLayout, line[:start]) != nil
}

func parseLog4j(text string) domain.LogRecord {
	first, tail := splitFirstLine(text)
	rec := domain.LogRecord{ErrorTail: tail}
	sc := lineScanner{s: first}

	if date, ok := sc.upTo("["); ok {
		rec.Date = parseDate(Log4jDateLayout, date)
	}
	if thread, ok := sc.bracketed(); ok {
		rec.Thread = strPtr(thread)
	}
	sc.literal("[:]")
	if level, ok := sc.word(); ok {
		rec.Level = strPtr(level)
	}
	if class, ok := sc.upTo(" - "); ok {
		if class = strings.TrimSpace(class); class != "" {
			rec.Class = strPtr(class)
		}
	}
	if msg, ok := sc.after("-"); ok {
		rec.Msg = strPtr(msg)
	}
	return rec
}
