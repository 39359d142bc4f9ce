package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the closed set of column types a schema can hold
type ColumnType int

const (
	ColumnInteger ColumnType = iota
	ColumnLong
	ColumnDouble
	ColumnTimestamp
	ColumnShortText
	ColumnLongText
)

// ShortTextSize is the inline storage width of ShortText columns
const ShortTextSize = 255

// TimestampLayouts are tried in order when a Timestamp column receives text
var TimestampLayouts = []string{
	"02/Jan/2006:15:04:05 -0700", // combined log
	time.RFC3339Nano,
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"02 Jan 2006 15:04:05,000",
	"2006-01-02",
}

var columnTypeNames = map[ColumnType]string{
	ColumnInteger:   "int",
	ColumnLong:      "long",
	ColumnDouble:    "double",
	ColumnTimestamp: "timestamp",
	ColumnShortText: "str",
	ColumnLongText:  "text",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType maps a short type name (int, long, double, date, str, text) to a ColumnType
func ParseColumnType(name string) (ColumnType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return ColumnInteger, true
	case "long", "bigint":
		return ColumnLong, true
	case "double", "float":
		return ColumnDouble, true
	case "date", "timestamp":
		return ColumnTimestamp, true
	case "str", "string":
		return ColumnShortText, true
	case "text", "clob":
		return ColumnLongText, true
	}
	return ColumnShortText, false
}

// SizeHint returns the storage width hint for the type.
// Zero means unbounded. The value is consumed by sinks and display code only.
func (t ColumnType) SizeHint() int {
	switch t {
	case ColumnInteger:
		return 11
	case ColumnLong:
		return 20
	case ColumnDouble:
		return 24
	case ColumnTimestamp:
		return 29
	case ColumnShortText:
		return ShortTextSize
	default:
		return 0
	}
}

// IsNumeric reports whether the type coerces blank input to zero
func (t ColumnType) IsNumeric() bool {
	return t == ColumnInteger || t == ColumnLong || t == ColumnDouble
}

// Coerce converts v into the canonical value of the column type.
// It never fails: input that cannot be converted yields the type's default
// (0 for numeric types, nil for Timestamp, the formatted text for text types).
func (t ColumnType) Coerce(v any) any {
	out, _ := t.TryCoerce(v)
	return out
}

// TryCoerce is Coerce but also reports ErrUnparseableValue when the default
// had to be substituted. The returned value is usable in both cases.
func (t ColumnType) TryCoerce(v any) (any, error) {
	switch t {
	case ColumnInteger:
		n, err := toInt64(v)
		if err == nil && (n > math.MaxInt32 || n < math.MinInt32) {
			err = fmt.Errorf("%w: %d overflows int", ErrUnparseableValue, n)
			n = 0
		}
		return int32(n), err
	case ColumnLong:
		return toInt64(v)
	case ColumnDouble:
		return toFloat64(v)
	case ColumnTimestamp:
		return toTimestamp(v)
	case ColumnShortText, ColumnLongText:
		return toText(v), nil
	default:
		return nil, fmt.Errorf("%w: unknown column type %d", ErrUnparseableValue, int(t))
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrUnparseableValue, x)
		}
		return n, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case time.Time:
		return x.UnixMilli(), nil
	default:
		return 0, fmt.Errorf("%w: unsupported %T", ErrUnparseableValue, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("%w: %q is not a number", ErrUnparseableValue, x)
		}
		return f, nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case time.Time:
		return float64(x.UnixMilli()), nil
	default:
		return 0, fmt.Errorf("%w: unsupported %T", ErrUnparseableValue, v)
	}
}

// toTimestamp returns nil (not an error value) for anything it cannot read
func toTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return x, nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil, nil
		}
		return *x, nil
	case int64:
		return time.UnixMilli(x).UTC(), nil
	case int:
		return time.UnixMilli(int64(x)).UTC(), nil
	case int32:
		return time.UnixMilli(int64(x)).UTC(), nil
	case float64:
		return time.UnixMilli(int64(x)).UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		if ts, ok := ParseTimestamp(s); ok {
			return ts, nil
		}
		return nil, fmt.Errorf("%w: %q is not a timestamp", ErrUnparseableValue, x)
	default:
		return nil, fmt.Errorf("%w: unsupported %T", ErrUnparseableValue, v)
	}
}

// ParseTimestamp tries every layout in TimestampLayouts
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range TimestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func toText(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case time.Time:
		return x.Format("2006-01-02 15:04:05.000")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
