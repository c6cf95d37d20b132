package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Matches reports whether doc satisfies filter.
// Supported: field equality on (dotted) paths and the $eq, $ne, $in, $exists operators.
func Matches(doc, filter Document) (bool, error) {
	for key, want := range filter {
		if strings.HasPrefix(key, "$") {
			return false, fmt.Errorf("%w: %s", ErrUnsupportedFilter, key)
		}

		got, present := lookup(doc, key)

		ops, isOps := operators(want)
		if !isOps {
			if !present || !equal(got, want) {
				return false, nil
			}
			continue
		}

		for op, arg := range ops {
			ok, err := evalOperator(op, got, present, arg)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func evalOperator(op string, got any, present bool, arg any) (bool, error) {
	switch op {
	case "$eq":
		return present && equal(got, arg), nil
	case "$ne":
		return !present || !equal(got, arg), nil
	case "$in":
		values, ok := arg.([]any)
		if !ok {
			return false, fmt.Errorf("%w: $in expects an array", ErrUnsupportedFilter)
		}
		if !present {
			return false, nil
		}
		for _, v := range values {
			if equal(got, v) {
				return true, nil
			}
		}
		return false, nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return false, fmt.Errorf("%w: $exists expects a boolean", ErrUnsupportedFilter)
		}
		return present == want, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedFilter, op)
	}
}

// ApplyUpdate returns a copy of doc with the $set / $unset update applied
func ApplyUpdate(doc, update Document) (Document, error) {
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: empty update", ErrUnsupportedUpdate)
	}

	out := clone(doc)
	for op, arg := range update {
		fields, ok := asDocument(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a document", ErrUnsupportedUpdate, op)
		}

		switch op {
		case "$set":
			for path, value := range fields {
				if path == "_id" {
					return nil, ErrImmutableID
				}
				setPath(out, path, value)
			}
		case "$unset":
			for path := range fields {
				if path == "_id" {
					return nil, ErrImmutableID
				}
				unsetPath(out, path)
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedUpdate, op)
		}
	}
	return out, nil
}

// operators returns the operator map when v is a document whose keys all start with "$"
func operators(v any) (map[string]any, bool) {
	m, ok := asDocument(v)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func asDocument(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

func lookup(doc Document, path string) (any, bool) {
	var current any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := asDocument(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(doc Document, path string, value any) {
	parts := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asDocument(current[part])
		if !ok {
			next = map[string]any{}
		} else {
			copied := make(map[string]any, len(next))
			for k, v := range next {
				copied[k] = v
			}
			next = copied
		}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func unsetPath(doc Document, path string) {
	parts := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asDocument(current[part])
		if !ok {
			return
		}
		copied := make(map[string]any, len(next))
		for k, v := range next {
			copied[k] = v
		}
		current[part] = copied
		current = copied
	}
	delete(current, parts[len(parts)-1])
}

// equal compares two JSON-compatible values by their canonical encoding,
// so 1 and 1.0 compare equal the way they do in the wire format.
func equal(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
