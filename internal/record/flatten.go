package record

// Flatten produces a single-level Record whose keys use bracket notation
// for nested objects: a field "name" inside an object-valued field "parent"
// becomes "parent[name]".
//
// Nesting deeper than one object does not compose: the recursion keys each
// leaf under its immediate parent only, so "a" -> "b" -> "c" flattens to
// "b[c]", not "a[b][c]". Sibling objects that share both a field name and a
// nested field name therefore collide, and one value wins. Arrays are kept
// as-is under their field's key.
func Flatten(rec Record) Record {
	out := make(Record, len(rec))
	flattenInto(rec, "", out)
	return out
}

func flattenInto(data Record, prefix string, out Record) {
	for key, value := range data {
		if nested, ok := value.(map[string]any); ok {
			flattenInto(Record(nested), key, out)
			continue
		}
		if prefix != "" {
			out[prefix+"["+key+"]"] = value
		} else {
			out[key] = value
		}
	}
}
