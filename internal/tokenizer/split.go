// Package tokenizer splits single lines of text into fields.
package tokenizer

import "strings"

// SplitByLiteral splits line on every occurrence of the literal delimiter.
// Empty fields are kept and nothing is trimmed. An empty delimiter yields the
// whole line as a single field.
func SplitByLiteral(line, delimiter string) []string {
	if delimiter == "" {
		return []string{line}
	}
	return strings.Split(line, delimiter)
}

// SplitQuoteAware splits a combined-log style line on spaces that are outside
// double quotes and square brackets. A double quote always toggles the quote
// state and "[" always opens a bracket span, whatever state the scan is in;
// "]" closes an open span. Quote and bracket characters are never part of a
// field. An unterminated quote or bracket keeps the rest of the line in the
// current field.
func SplitQuoteAware(line string) []string {
	var (
		tokens     []string
		buf        strings.Builder
		inQuotes   bool
		inBrackets bool
	)

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == '[':
			inBrackets = true
		case c == ']':
			inBrackets = false
		case c == ' ' && !inQuotes && !inBrackets:
			tokens = append(tokens, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(c)
		}
	}

	if buf.Len() > 0 {
		tokens = append(tokens, buf.String())
	}

	return tokens
}
