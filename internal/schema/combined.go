package schema

import (
	"fmt"
	"strings"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// HTTPVerbs are the request methods recognized in combined log lines
var HTTPVerbs = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "TRACE", "HEAD", "OPTIONS"}

var (
	osTypes       = []string{"osx", "windows", "other"}
	responseTypes = []string{"text/html", "text/css", "text/javascript", "image/png", "image/gif"}
	schemes       = []string{"http://", "https://"}
	protocols     = []string{"HTTP/", "HTTPS/"}
	osWords       = []string{"Macintosh", "Mac OS X", "Windows NT", "Linux", "Android"}
	browserWords  = []string{"AppleWebKit", "Gecko", "Chrome", "KHTML", "Safari"}
)

// CombinedColumn guesses the column for one combined-log token.
// previous is the column chosen for the preceding token, if any.
func CombinedColumn(token string, previous *domain.Field) domain.Field {
	if token == "-" {
		return domain.Field{Name: domain.DefaultColumnName, Type: domain.ColumnShortText}
	}

	if previous != nil && previous.Name == "verb" {
		return domain.Field{Name: "path", Type: domain.ColumnShortText}
	}

	// Rules are tried in order and the first match wins. A URL with a scheme
	// always has "/" and ":", so it lands on ip (three dots) or date before
	// the referrer rule is reached.
	switch {
	case strings.Count(token, ".") == 3:
		return domain.Field{Name: "ip", Type: domain.ColumnShortText}
	case strings.Contains(token, "/") && strings.Contains(token, ":"):
		return domain.Field{Name: "date", Type: domain.ColumnTimestamp}
	case isAnyOf(token, HTTPVerbs):
		return domain.Field{Name: "verb", Type: domain.ColumnShortText}
	case isAnyOf(token, osTypes):
		return domain.Field{Name: "os", Type: domain.ColumnShortText}
	case isAnyOf(token, responseTypes):
		return domain.Field{Name: "response_type", Type: domain.ColumnShortText}
	case hasAnyPrefix(token, schemes):
		return domain.Field{Name: "referrer", Type: domain.ColumnShortText}
	case hasAnyPrefix(token, protocols):
		return domain.Field{Name: "protocol", Type: domain.ColumnShortText}
	case IsUserAgent(token):
		return domain.Field{Name: "user_agent", Type: domain.ColumnShortText}
	}

	return domain.Field{Name: domain.DefaultColumnName, Type: DetectColumnType(token)}
}

// InferCombined builds the schema of a combined log from its first line's tokens
func InferCombined(table string, tokens []string) (*domain.Schema, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty first line", domain.ErrMalformedSchema)
	}

	s := domain.NewSchema(table)
	var previous *domain.Field
	for _, token := range tokens {
		guess := CombinedColumn(token, previous)
		if _, err := s.AddField(guess.Name, guess.Type); err != nil {
			return nil, fmt.Errorf("failed to add column %q: %w", token, err)
		}
		previous = &guess
	}

	s.Freeze()
	return s, nil
}

// IsUserAgent reports whether token looks like a browser user agent
func IsUserAgent(token string) bool {
	return containsAny(token, osWords) && containsAny(token, browserWords)
}

func isAnyOf(value string, list []string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func hasAnyPrefix(value string, list []string) bool {
	for _, item := range list {
		if strings.HasPrefix(value, item) {
			return true
		}
	}
	return false
}

func containsAny(value string, list []string) bool {
	for _, item := range list {
		if strings.Contains(value, item) {
			return true
		}
	}
	return false
}
