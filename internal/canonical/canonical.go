// Package canonical produces RFC 8785 style canonical JSON and
// domain-separated content hashes.
//
// Producer state is persisted in this form so that identical state always
// serializes to identical bytes, which lets the store skip writes whose
// content hash did not change.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces canonical JSON for v.
//
// Supported values: string, bool, int, int64, []int64, []string, []any and
// map[string]any of those. Differences from encoding/json:
//  1. Object keys are sorted by UTF-16 code units.
//  2. No HTML escaping.
//  3. Strings are NFC normalized.
//  4. Floats and null are rejected.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return encodeString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case []int64:
		buf.WriteByte('[')
		for i, n := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "%d", n)
		}
		buf.WriteByte(']')
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return encodeArray(buf, items)
	case []any:
		return encodeArray(buf, val)
	case map[string]any:
		return encodeObject(buf, val)
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func encodeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, item); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := encode(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeString writes s NFC normalized, escaping only quote, backslash and
// control characters.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes encoding/json
// emits back into literal characters. An escaped backslash followed by
// "u2028" text is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) && string(data[i+2:i+5]) == "202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// Any other escape: copy both bytes so the next byte is never
		// mistaken for the start of an escape.
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// compareUTF16 orders strings by UTF-16 code units, as RFC 8785 requires.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
