package cinetl

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NaturalKey is a site-assigned identifier. The crawler emits these as JSON
// strings most of the time, but numbers show up too, so both are accepted.
// Surrounding whitespace is trimmed and null decodes to the empty key.
type NaturalKey string

// UnmarshalJSON implements json.Unmarshaler.
func (k *NaturalKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decoding key string")
		}
		*k = NaturalKey(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("key must be a string or a number, got %s", data)
	}
	*k = NaturalKey(n.String())
	return nil
}

// String returns the key as a plain string.
func (k NaturalKey) String() string { return string(k) }

// OptInt is an integer that may be absent. It decodes from a JSON number
// with no fractional part, a string holding an integer, or null.
// Anything else decodes as absent rather than failing the whole line.
type OptInt struct {
	V     int64
	Valid bool
}

// Int returns a present OptInt.
func Int(v int64) OptInt { return OptInt{V: v, Valid: true} }

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptInt) UnmarshalJSON(data []byte) error {
	*o = OptInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
	} else {
		s = string(data)
	}
	*o = ParseOptInt(s)
	return nil
}

// MarshalJSON implements json.Marshaler; absent values encode as null.
func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(o.V, 10)), nil
}

// String formats the value, or returns "" when absent.
func (o OptInt) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatInt(o.V, 10)
}

// ParseOptInt parses an integer out of s, accepting integral floats such as
// "3.0".
func ParseOptInt(s string) OptInt {
	s = strings.TrimSpace(s)
	if s == "" {
		return OptInt{}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return OptInt{}
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return OptInt{}
	}
	return Int(int64(f))
}

// Flag is a loosely typed boolean. The crawler has written true/false,
// 0/1 and "TRUE"/"FALSE" over time.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	case bytes.Equal(data, []byte("true")):
		*f = true
		return nil
	case bytes.Equal(data, []byte("false")):
		*f = false
		return nil
	}
	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decoding flag string")
		}
	} else {
		s = string(data)
	}
	*f = Flag(ParseFlag(s))
	return nil
}

// ParseFlag reports whether s spells a true value.
func ParseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "T", "TRUE", "Y", "YES":
		return true
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f != 0
	}
	return false
}

// Text is a free-text field that tolerates non-string JSON scalars. Numbers
// and booleans are kept in their JSON spelling; arrays and objects decode as
// empty text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decoding text")
		}
		*t = Text(s)
	case '[', '{':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the text with surrounding whitespace removed.
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// TextList is a list of free-text values. A bare string decodes as a one
// element list; any other non-array value decodes as empty.
type TextList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var t Text
		if err := t.UnmarshalJSON(data); err != nil {
			return err
		}
		*l = TextList{string(t)}
	case '[':
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		out := make(TextList, 0, len(items))
		for _, it := range items {
			out = append(out, string(it))
		}
		*l = out
	}
	return nil
}
