package logreader

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sangupta/fileanalysis/internal/domain"
)

// leadingTimestamp matches lines starting with "2006-01-02 15:04:05,000"
func leadingTimestamp(line string) bool {
	const layout = "2006-01-02 15:04:05,000"
	if len(line) < len(layout) {
		return false
	}
	_, err := time.Parse(layout, line[:len(layout)])
	return err == nil
}

func banner(line string) bool {
	return strings.HasPrefix(line, "#logback")
}

func collect(t *testing.T, input string, isBoundary, isSkip LinePredicate) ([]*domain.LogicalRecord, int) {
	t.Helper()

	src := NewReaderSource("test", strings.NewReader(input))
	defer src.Close()

	var records []*domain.LogicalRecord
	lines, err := NewReassembler(isBoundary, isSkip).Run(context.Background(), src, func(r *domain.LogicalRecord) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return records, lines
}

func TestReassembler_StackTraceContinuation(t *testing.T) {
	input := strings.Join([]string{
		"2020-01-01 10:00:00,000 INFO [main] [A] - hello",
		"  at com.x.Y(Y.java:1)",
		"2020-01-01 10:00:01,000 ERROR [t2] [B] - boom",
	}, "\n")

	records, lines := collect(t, input, leadingTimestamp, nil)

	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	want := "2020-01-01 10:00:00,000 INFO [main] [A] - hello\n  at com.x.Y(Y.java:1)"
	if records[0].Text() != want {
		t.Errorf("first record = %q, want %q", records[0].Text(), want)
	}
	if records[0].StartLine != 1 || records[1].StartLine != 3 {
		t.Errorf("start lines = %d, %d, want 1, 3", records[0].StartLine, records[1].StartLine)
	}
	if records[1].LineCount() != 1 {
		t.Errorf("second record line count = %d, want 1", records[1].LineCount())
	}
}

func TestReassembler_DateShapedContinuationStartsNewRecord(t *testing.T) {
	// a wrapped message line that happens to begin with a timestamp is taken as a new record
	input := strings.Join([]string{
		"2020-01-01 10:00:00,000 ERROR [main] [A] - batch failed, last attempt at",
		"2020-01-01 09:59:59,000 was rejected",
		"  caused by timeout",
	}, "\n")

	records, _ := collect(t, input, leadingTimestamp, nil)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[1].Text() != "2020-01-01 09:59:59,000 was rejected\n  caused by timeout" {
		t.Errorf("second record = %q", records[1].Text())
	}
}

func TestReassembler_FlushAtEndOfInput(t *testing.T) {
	input := "2020-01-01 10:00:00,000 INFO [main] [A] - hello\nline two\nline three"

	records, _ := collect(t, input, leadingTimestamp, nil)

	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].LineCount() != 3 {
		t.Errorf("line count = %d, want 3", records[0].LineCount())
	}
}

func TestReassembler_SkipLine(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name: "skip flushes and is discarded",
			input: []string{
				"2020-01-01 10:00:00,000 INFO [main] [A] - one",
				"continued",
				"#logback.classic pattern",
				"orphan",
				"2020-01-01 10:00:01,000 INFO [main] [A] - two",
			},
			want: []string{
				"2020-01-01 10:00:00,000 INFO [main] [A] - one\ncontinued",
				"orphan",
				"2020-01-01 10:00:01,000 INFO [main] [A] - two",
			},
		},
		{
			name:  "skip with nothing pending",
			input: []string{"#logback", "#logback", "2020-01-01 10:00:00,000 INFO [main] [A] - one"},
			want:  []string{"2020-01-01 10:00:00,000 INFO [main] [A] - one"},
		},
		{
			name:  "only skip lines",
			input: []string{"#logback"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _ := collect(t, strings.Join(tt.input, "\n"), leadingTimestamp, banner)

			if len(records) != len(tt.want) {
				t.Fatalf("records = %d, want %d", len(records), len(tt.want))
			}
			for i, r := range records {
				if r.Text() != tt.want[i] {
					t.Errorf("record %d = %q, want %q", i, r.Text(), tt.want[i])
				}
			}
		})
	}
}

func TestReassembler_FirstLineWithoutBoundary(t *testing.T) {
	records, _ := collect(t, "preamble\n2020-01-01 10:00:00,000 INFO [main] [A] - one", leadingTimestamp, nil)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Text() != "preamble" {
		t.Errorf("first record = %q, want preamble", records[0].Text())
	}
}

func TestReassembler_EmptyInput(t *testing.T) {
	records, lines := collect(t, "", leadingTimestamp, banner)

	if len(records) != 0 || lines != 0 {
		t.Errorf("records = %d, lines = %d, want none", len(records), lines)
	}
}
