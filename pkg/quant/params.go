package quant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Param is a single key/value pair of a request's query string.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Params is a flat, ordered parameter mapping. Order is the insertion order
// and is kept when the query string is built.
type Params []Param

// NewParams builds Params from alternating keys and values.
func NewParams(kv ...any) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p = p.Add(fmt.Sprint(kv[i]), kv[i+1])
	}
	return p
}

// ParamsFromMap converts a map into Params sorted by key.
func ParamsFromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p := make(Params, 0, len(keys))
	for _, k := range keys {
		p = p.Add(k, m[k])
	}
	return p
}

// Add appends key=value, replacing the value in place if the key exists.
func (p Params) Add(key string, value any) Params {
	v := FormatValue(value)
	for i := range p {
		if p[i].Key == key {
			p[i].Value = v
			return p
		}
	}
	return append(p, Param{Key: key, Value: v})
}

// Get returns the value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Encode renders the query string: key=value pairs joined by '&', every key
// and value escaped individually.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EscapeComponent(kv.Key))
		b.WriteByte('=')
		b.WriteString(EscapeComponent(kv.Value))
	}
	return b.String()
}

// UnmarshalJSON reads a flat JSON object, keeping its key order.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("params: expected object, got %v", tok)
	}
	out := Params{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := primitive(raw)
		if err != nil {
			return fmt.Errorf("params: key %q: %w", key, err)
		}
		out = out.Add(key, v)
	}
	*p = out
	return nil
}

// MarshalJSON writes Params as a JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(kv.Key)
		v, _ := json.Marshal(kv.Value)
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func primitive(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("nested values are not allowed")
	}
	return v, nil
}

// FormatValue renders a primitive the way a browser stringifies it for a
// query string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return formatNumber(x, 64)
	case float32:
		return formatNumber(float64(x), 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber writes x the way a browser's String(x) does: plain digits
// for 1e-6 <= |x| < 1e21, exponent form without padding otherwise.
func formatNumber(x float64, bits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	}
	if a := math.Abs(x); a >= 1e21 || a < 1e-6 {
		s := strconv.FormatFloat(x, 'e', -1, bits)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(x, 'f', -1, bits)
}

// EscapeComponent percent-encodes s leaving only A-Z a-z 0-9 - _ . ! ~ * ' ( )
// unescaped. Other bytes are written as %XX of their UTF-8 encoding.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	const hex = "0123456789ABCDEF"
	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', hex[c>>4], hex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
