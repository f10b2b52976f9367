package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
)

// Row is a stored record keyed by column name.
// Accessors tolerate the value types produced by the different backends
// (e.g. lib/pq returns []byte for uuid & jsonb columns and time.Time for dates).
type Row map[string]interface{}

func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) NullString(key string) null.String {
	if r[key] == nil {
		return null.String{}
	}
	return null.StringFrom(r.String(key))
}

func (r Row) Bytes(key string) []byte {
	switch v := r[key].(type) {
	case nil:
		return nil
	case []byte:
		return v
	default:
		return []byte(r.String(key))
	}
}

func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(v))
		return b
	}
	return false
}

func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case string, []byte:
		f, _ := strconv.ParseFloat(r.String(key), 64)
		return f
	}
	return 0
}

func (r Row) NullFloat(key string) null.Float64 {
	if r[key] == nil {
		return null.Float64{}
	}
	return null.Float64From(r.Float(key))
}

func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case string, []byte:
		i, _ := strconv.Atoi(r.String(key))
		return i
	}
	return 0
}

func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC()
	case string, []byte:
		if t, err := time.Parse(time.RFC3339Nano, r.String(key)); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Date returns a calendar date in core.DateLayout.
func (r Row) Date(key string) string {
	switch v := r[key].(type) {
	case time.Time:
		return v.Format(core.DateLayout)
	case string:
		if len(v) > len(core.DateLayout) {
			return v[:len(core.DateLayout)]
		}
		return v
	}
	return r.String(key)
}

// NullValue unwraps a nullable into a Row value (nil when invalid).
func NullValue(v interface{ IsZero() bool }) interface{} {
	if v.IsZero() {
		return nil
	}
	switch n := v.(type) {
	case null.String:
		return n.String
	case null.Float64:
		return n.Float64
	case null.Int:
		return n.Int
	case null.Time:
		return n.Time
	}
	return v
}

// Nullable returns nil for an empty string so optional foreign keys are stored as NULL.
func Nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
