package schema

import (
	"errors"
	"testing"

	"github.com/sangupta/fileanalysis/internal/domain"
)

func TestDetectColumnType(t *testing.T) {
	tests := []struct {
		value string
		want  domain.ColumnType
	}{
		{"42", domain.ColumnLong},
		{"-7", domain.ColumnLong},
		{"+7", domain.ColumnLong},
		{"3.14", domain.ColumnDouble},
		{"1e3", domain.ColumnDouble},
		{"inf", domain.ColumnShortText},
		{"NaN", domain.ColumnShortText},
		{"", domain.ColumnShortText},
		{"12abc", domain.ColumnShortText},
		{"99999999999999999999", domain.ColumnDouble},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := DetectColumnType(tt.value); got != tt.want {
				t.Errorf("DetectColumnType(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestInferTabular(t *testing.T) {
	tests := []struct {
		name      string
		header    []string
		sample     []string
		wantNames []string
		wantTypes []domain.ColumnType
	}{
		{
			name:      "header and sample",
			header:    []string{"ID", "Name", "Score"},
			sample:     []string{"1", "bob", "2.5"},
			wantNames: []string{"id", "name", "score"},
			wantTypes: []domain.ColumnType{domain.ColumnLong, domain.ColumnShortText, domain.ColumnDouble},
		},
		{
			name:      "sample wider than header",
			header:    []string{"a"},
			sample:     []string{"1", "2"},
			wantNames: []string{"a", "col"},
			wantTypes: []domain.ColumnType{domain.ColumnLong, domain.ColumnLong},
		},
		{
			name:      "header wider than sample",
			header:    []string{"a", "b", "c"},
			sample:     []string{"1.5"},
			wantNames: []string{"a", "b", "c"},
			wantTypes: []domain.ColumnType{domain.ColumnDouble, domain.ColumnShortText, domain.ColumnShortText},
		},
		{
			name:      "no header",
			sample:     []string{"x", "5", "y"},
			wantNames: []string{"col", "col1", "col2"},
			wantTypes: []domain.ColumnType{domain.ColumnShortText, domain.ColumnLong, domain.ColumnShortText},
		},
		{
			name:      "header only",
			header:    []string{"a", "a"},
			wantNames: []string{"a", "a1"},
			wantTypes: []domain.ColumnType{domain.ColumnShortText, domain.ColumnShortText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := InferTabular("data", tt.header, tt.sample)
			if err != nil {
				t.Fatalf("InferTabular() error = %v", err)
			}

			if s.Len() != max(len(tt.header), len(tt.sample)) {
				t.Fatalf("Len() = %d, want %d", s.Len(), max(len(tt.header), len(tt.sample)))
			}

			for i, f := range s.Fields() {
				if f.Name != tt.wantNames[i] {
					t.Errorf("field %d name = %s, want %s", i, f.Name, tt.wantNames[i])
				}
				if f.Type != tt.wantTypes[i] {
					t.Errorf("field %d type = %v, want %v", i, f.Type, tt.wantTypes[i])
				}
			}
		})
	}
}

func TestInferTabular_Empty(t *testing.T) {
	_, err := InferTabular("data", nil, nil)
	if !errors.Is(err, domain.ErrMalformedSchema) {
		t.Errorf("error = %v, want ErrMalformedSchema", err)
	}
}

func TestInferCombined(t *testing.T) {
	tokens := []string{
		"127.0.0.1", "-", "frank", "10/Oct/2000:13:55:36 -0700",
		"GET", "/apache_pb.gif", "HTTP/1.0", "200", "2326",
		"http://www.example.com/start.html",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	}

	s, err := InferCombined("logs", tokens)
	if err != nil {
		t.Fatalf("InferCombined() error = %v", err)
	}

	want := []domain.Field{
		{Name: "ip", Type: domain.ColumnShortText},
		{Name: "col", Type: domain.ColumnShortText},
		{Name: "col2", Type: domain.ColumnShortText},
		{Name: "date", Type: domain.ColumnTimestamp},
		{Name: "verb", Type: domain.ColumnShortText},
		{Name: "path", Type: domain.ColumnShortText},
		{Name: "protocol", Type: domain.ColumnShortText},
		{Name: "col7", Type: domain.ColumnLong},
		{Name: "col8", Type: domain.ColumnLong},
		{Name: "ip9", Type: domain.ColumnShortText},
		{Name: "user_agent", Type: domain.ColumnShortText},
	}

	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d: %v", s.Len(), len(want), s.Fields())
	}
	for i, f := range s.Fields() {
		if f != want[i] {
			t.Errorf("field %d = %v, want %v", i, f, want[i])
		}
	}
}
