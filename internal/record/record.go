package record

import "strconv"

// Record is one decoded JSON object from an upstream billing API.
//
// Upstream payloads are schemaless in practice: Chargify serializes every
// field with explicit nulls, numeric fields arrive as numbers or numeric
// strings depending on the endpoint, and new fields appear without notice.
// Record keeps the raw decoded form and offers typed accessors that treat
// absent, null and wrong-typed values as zero values. Places where a missing
// field must abort an export cycle check for it explicitly instead of
// relying on these accessors.
type Record map[string]any

// Value returns the raw decoded value for key, or nil when absent.
func (r Record) Value(key string) any {
	return r[key]
}

// Has reports whether key is present, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value for key rendered as a string. Numbers are
// rendered in their shortest decimal form so that a JSON 12345 and a JSON
// "12345" produce the same string, which keeps cross-record ID joins stable.
// Absent, null and non-scalar values return "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the value for key as a float64. Numeric strings are parsed,
// matching upstream APIs that serialize money amounts as strings. The second
// return is false when the value is absent, null or not numeric.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Map returns the nested object at key, or nil when the value is absent or
// not an object. Accessors on a nil Record return zero values, so callers
// can chain lookups and only check for nil where an absent object matters.
func (r Record) Map(key string) Record {
	if m, ok := r[key].(map[string]any); ok {
		return Record(m)
	}
	return nil
}

// List returns the array at key, or nil when the value is absent or not an
// array.
func (r Record) List(key string) []any {
	if l, ok := r[key].([]any); ok {
		return l
	}
	return nil
}

// Truthy reports whether the value at key is truthy: present, non-null,
// non-zero, non-empty. It mirrors the truth rules the export conditions are
// written against (a null coupon list and an empty coupon list both count
// as "no coupons").
func (r Record) Truthy(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}
