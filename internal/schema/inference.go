// Package schema derives table schemas from sample lines.
package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// DetectColumnType classifies a single value: Long, then Double, then ShortText.
// A failed parse falls through to the next candidate.
func DetectColumnType(value string) domain.ColumnType {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return domain.ColumnLong
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return domain.ColumnDouble
	}

	return domain.ColumnShortText
}

// InferTabular builds the schema of a delimited table.
// header holds the column names (nil when the source has no header row) and
// sample holds the first data row (nil when the source has a header but no
// data). The schema is max(len(header), len(sample)) wide; positions without
// a sample value are ShortText and positions without a name are "col".
func InferTabular(table string, header, sample []string) (*domain.Schema, error) {
	if header == nil && sample == nil {
		return nil, fmt.Errorf("%w: no header or sample line", domain.ErrMalformedSchema)
	}

	width := max(len(header), len(sample))
	s := domain.NewSchema(table)

	for i := 0; i < width; i++ {
		name := domain.DefaultColumnName
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			name = header[i]
		}

		typ := domain.ColumnShortText
		if i < len(sample) {
			typ = DetectColumnType(sample[i])
		}

		if _, err := s.AddField(name, typ); err != nil {
			return nil, fmt.Errorf("failed to add column %d: %w", i, err)
		}
	}

	s.Freeze()
	return s, nil
}
