package store

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jward/understory/internal/relation"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

// marshalModifiers converts []string to JSON text for storage.
func marshalModifiers(mods []string) string {
	if len(mods) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(mods)
	return string(b)
}

// unmarshalModifiers converts JSON text back to []string.
func unmarshalModifiers(s string) []string {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var mods []string
	_ = json.Unmarshal([]byte(s), &mods)
	return mods
}

// marshalAttrs converts relation attributes to JSON text for storage.
func marshalAttrs(a relation.Attrs) (string, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalAttrs converts JSON text back to attributes, restoring integral
// numbers as int.
func unmarshalAttrs(s string) (relation.Attrs, error) {
	attrs := relation.Attrs{}
	if s == "" || s == "{}" {
		return attrs, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				attrs[k] = int(i)
				continue
			}
			f, _ := n.Float64()
			attrs[k] = f
			continue
		}
		attrs[k] = v
	}
	return attrs, nil
}
