package dialect

import (
	"strings"

	"github.com/sangupta/fileanalysis/internal/domain"
	"github.com/sangupta/fileanalysis/internal/schema"
	"github.com/sangupta/fileanalysis/internal/tokenizer"
)

// NewApacheLog reads Apache combined/common access logs. There is never a
// header row; the schema is guessed from the shape of the first line's tokens.
func NewApacheLog(opts Options) *Tabular {
	return &Tabular{
		name:     "apache",
		table:    tableOr(opts, domain.LogTable),
		tokenize: TokenizeAccessLine,
		infer: func(table string, _, sample []string) (*domain.Schema, error) {
			return schema.InferCombined(table, sample)
		},
	}
}

// TokenizeAccessLine splits an access log line on unquoted, unbracketed
// spaces and breaks the quoted request ("GET /x HTTP/1.1") into verb, path
// and protocol tokens.
func TokenizeAccessLine(line string) []string {
	base := tokenizer.SplitQuoteAware(line)
	tokens := make([]string, 0, len(base)+2)

	for _, token := range base {
		tokens = append(tokens, ExpandRequest(token)...)
	}
	return tokens
}

// ExpandRequest splits a request token into verb, path and (when present)
// protocol. Tokens that do not start with a known verb are returned as is.
func ExpandRequest(token string) []string {
	space := strings.IndexByte(token, ' ')
	if space == -1 {
		return []string{token}
	}

	verb := token[:space]
	if !isVerb(verb) {
		return []string{token}
	}

	last := strings.LastIndexByte(token, ' ')
	if last == space {
		return []string{verb, token[space+1:]}
	}
	return []string{verb, token[space+1 : last], token[last+1:]}
}

func isVerb(s string) bool {
	for _, v := range schema.HTTPVerbs {
		if s == v {
			return true
		}
	}
	return false
}
