package domain

import (
	"fmt"
	"strings"
)

// DefaultColumnName is used for positions that have no usable header name
const DefaultColumnName = "col"

// Field is one named, typed column of a Schema
type Field struct {
	Name string
	Type ColumnType
}

func (f Field) String() string {
	return f.Name + "[" + f.Type.String() + "]"
}

// Schema is the ordered column list of one table.
// Fields can only be appended while the schema is being built; Freeze locks the width.
type Schema struct {
	Table  string
	fields []Field
	frozen bool
}

// NewSchema creates an empty schema for the given table
func NewSchema(table string) *Schema {
	return &Schema{Table: SanitizeName(table)}
}

// SanitizeName normalizes table and column names
func SanitizeName(name string) string {
	return strings.ToLower(name)
}

// AddField appends a column. Blank names become "col"; a name already present
// gets the new field's 0-based position appended until it is unique.
func (s *Schema) AddField(name string, typ ColumnType) (Field, error) {
	if s.frozen {
		return Field{}, fmt.Errorf("schema %s is frozen with %d fields", s.Table, len(s.fields))
	}

	name = SanitizeName(name)
	if strings.TrimSpace(name) == "" {
		name = DefaultColumnName
	}

	position := len(s.fields)
	for s.has(name) {
		name = fmt.Sprintf("%s%d", name, position)
	}

	f := Field{Name: name, Type: typ}
	s.fields = append(s.fields, f)
	return f, nil
}

func (s *Schema) has(name string) bool {
	for _, f := range s.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Freeze fixes the field count for the rest of the session
func (s *Schema) Freeze() {
	s.frozen = true
}

// Len returns the number of fields
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the ordered fields
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field at position i
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Names returns the column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Row aligns raw values with the schema: missing trailing values become nil,
// values beyond the schema width are cut off. The second result is the number
// of values that were cut.
func (s *Schema) Row(values []any) (ParsedRow, int) {
	row := make(ParsedRow, len(s.fields))
	n := copy(row, values)
	return row, len(values) - n
}

// Coerce runs every value of row through its column's coercion in place.
// It returns the number of values that had to fall back to their default.
func (s *Schema) Coerce(row ParsedRow) int {
	unparseable := 0
	for i := range row {
		v, err := s.fields[i].Type.TryCoerce(row[i])
		if err != nil {
			unparseable++
		}
		row[i] = v
	}
	return unparseable
}
