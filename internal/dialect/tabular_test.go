package dialect

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sangupta/fileanalysis/internal/domain"
)

func TestTabular_Tokenize(t *testing.T) {
	tests := []struct {
		name    string
		dialect *Tabular
		line    string
		want    []string
	}{
		{"csv", NewCSV(DefaultOptions()), "a,,c", []string{"a", "", "c"}},
		{"tsv", NewTSV(DefaultOptions()), "a\tb", []string{"a", "b"}},
		{"pipe", NewPipe(DefaultOptions()), "a|b|", []string{"a", "b", ""}},
		{"delimited", NewDelimited(Options{Delimiter: "::"}), "a::b:c", []string{"a", "b:c"}},
		{"delimited default", NewDelimited(Options{}), "a,b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Tokenize(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestTabular_InferSchema(t *testing.T) {
	csv := NewCSV(DefaultOptions())

	s, err := csv.InferSchema([]string{"id", "name"}, []string{"1", "x"})
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}
	if s.Table != DataTable {
		t.Errorf("Table = %s, want %s", s.Table, DataTable)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("Names() = %v", got)
	}

	if _, err := csv.InferSchema(nil, nil); !errors.Is(err, domain.ErrMalformedSchema) {
		t.Errorf("error = %v, want ErrMalformedSchema", err)
	}
}

func TestTabular_HeaderRowOption(t *testing.T) {
	if !NewCSV(DefaultOptions()).HasHeaderRow() {
		t.Error("default HasHeaderRow = false")
	}
	if NewCSV(Options{HasHeaderRow: false}).HasHeaderRow() {
		t.Error("HasHeaderRow = true with option off")
	}
	if NewApacheLog(Options{HasHeaderRow: true}).HasHeaderRow() {
		t.Error("apache log must never have a header row")
	}
}

func TestExpandRequest(t *testing.T) {
	tests := []struct {
		token string
		want  []string
	}{
		{"GET /x HTTP/1.1", []string{"GET", "/x", "HTTP/1.1"}},
		{"POST /submit", []string{"POST", "/submit"}},
		{"GET /a b HTTP/1.0", []string{"GET", "/a b", "HTTP/1.0"}},
		{"Mozilla/5.0 (X11; Linux)", []string{"Mozilla/5.0 (X11; Linux)"}},
		{"GETTER /x", []string{"GETTER /x"}},
		{"200", []string{"200"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ExpandRequest(tt.token); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandRequest(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestApacheLog_Schema(t *testing.T) {
	apache := NewApacheLog(DefaultOptions())
	line := `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326 "http://www.example.com/start.html" "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"`

	tokens := apache.Tokenize(line)
	if len(tokens) != 11 {
		t.Fatalf("tokens = %q, want 11", tokens)
	}

	s, err := apache.InferSchema(nil, tokens)
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}

	want := []string{"ip", "col", "col2", "date", "verb", "path", "protocol", "col7", "col8", "ip9", "user_agent"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if s.Table != domain.LogTable {
		t.Errorf("Table = %s, want %s", s.Table, domain.LogTable)
	}
}
