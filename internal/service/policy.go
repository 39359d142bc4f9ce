package service

import (
	"strings"
	"unicode/utf8"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// LogPolicy is applied to every parsed log record before it is stored
type LogPolicy struct {
	RetainLongMessages bool
	SkipLevel          string
}

// Apply normalizes rec in place and returns the drop reason, or "" when the
// record should be stored.
func (p LogPolicy) Apply(rec *domain.LogRecord) string {
	if rec.IsEmpty() {
		return domain.DropEmpty
	}

	if rec.Level != nil {
		level := strings.TrimSpace(*rec.Level)
		rec.Level = &level
	}
	if p.SkipLevel != "" && rec.Level != nil && *rec.Level == p.SkipLevel {
		return domain.DropLevel
	}

	if rec.Msg != nil {
		full := strings.TrimSpace(*rec.Msg)
		short := truncateRunes(full, domain.ShortTextSize)
		rec.Message = &full
		rec.Msg = &short
	}

	if !p.RetainLongMessages {
		rec.Message = nil
		rec.ErrorTail = nil
	}

	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
