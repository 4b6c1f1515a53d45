package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrFloatNotAllowed = errors.New("float values are not allowed")
	ErrUnsupportedType = errors.New("unsupported type for canonicalization")
	ErrKeyCollision    = errors.New("normalized map key collision")
)

// Canonicalize encodes v as canonical JSON bytes: NFC-normalized strings,
// lexicographically sorted object keys, nulls stripped from objects. Floats
// are rejected so two encoders can never disagree on a digest; decimal
// amounts are carried as strings by the caller.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return writeString(buf, value)
	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.Itoa(value))
	case int64:
		buf.WriteString(strconv.FormatInt(value, 10))
	case float32, float64, json.Number:
		return ErrFloatNotAllowed
	case []string:
		items := make([]any, len(value))
		for i, s := range value {
			items[i] = s
		}
		return writeSlice(buf, items)
	case []any:
		return writeSlice(buf, value)
	case map[string]any:
		return writeMap(buf, value)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

func writeSlice(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

type mapEntry struct {
	key   string
	value any
}

func writeMap(buf *bytes.Buffer, m map[string]any) error {
	entries := make([]mapEntry, 0, len(m))
	seen := map[string]struct{}{}

	for key, value := range m {
		normalized := norm.NFC.String(key)
		if _, ok := seen[normalized]; ok {
			return ErrKeyCollision
		}
		seen[normalized] = struct{}{}
		if value == nil {
			continue
		}
		entries = append(entries, mapEntry{key: normalized, value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	buf.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, entry.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, entry.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
