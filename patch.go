package kle

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Patch is a sparse set of key-property overrides applied to the running
// template before the next legend. Nil fields are absent.
type Patch struct {
	R  *float64 // rotation angle
	RX *float64 // rotation center x
	RY *float64 // rotation center y
	A  *int     // legend alignment flags

	F  *float64  // default legend size; clears per-position sizes
	F2 *float64  // size of serialized positions 1..11
	FA []float64 // serialized per-position sizes (0 = absent); nil when absent

	P  *string // profile
	C  *string // key color
	T  *string // newline-joined legend colors

	X  *float64 // offset added to the current x
	Y  *float64 // offset added to the current y
	W  *float64
	H  *float64
	X2 *float64
	Y2 *float64
	W2 *float64
	H2 *float64

	N  *bool // homing nub
	L  *bool // stepped
	D  *bool // decal
	G  *bool // ghost
	SM *string
	SB *string
	ST *string
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool { return len(p.fields()) == 0 }

// HasRotation reports whether the patch sets r, rx or ry.
func (p Patch) HasRotation() bool { return p.R != nil || p.RX != nil || p.RY != nil }

// patchField is one name/value pair in emission order.
type patchField struct {
	name  string
	value any
}

// fields lists the present fields in the order the encoder writes them.
func (p Patch) fields() []patchField {
	var out []patchField
	addF := func(name string, v *float64) {
		if v != nil {
			out = append(out, patchField{name, *v})
		}
	}
	addS := func(name string, v *string) {
		if v != nil {
			out = append(out, patchField{name, *v})
		}
	}
	addB := func(name string, v *bool) {
		if v != nil {
			out = append(out, patchField{name, *v})
		}
	}
	addF("r", p.R)
	addF("rx", p.RX)
	addF("ry", p.RY)
	addF("y", p.Y)
	addF("x", p.X)
	addS("c", p.C)
	addS("t", p.T)
	addB("g", p.G)
	addS("p", p.P)
	addS("sm", p.SM)
	addS("sb", p.SB)
	addS("st", p.ST)
	if p.A != nil {
		out = append(out, patchField{"a", *p.A})
	}
	addF("f", p.F)
	addF("f2", p.F2)
	if p.FA != nil {
		out = append(out, patchField{"fa", append([]float64(nil), p.FA...)})
	}
	addF("w", p.W)
	addF("h", p.H)
	addF("w2", p.W2)
	addF("h2", p.H2)
	addF("x2", p.X2)
	addF("y2", p.Y2)
	addB("n", p.N)
	addB("l", p.L)
	addB("d", p.D)
	return out
}

// MarshalJSON writes the present fields in emission order.
func (p Patch) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	if err := writeRecord(&b, p.fields(), false); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalJSON reads a patch record.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var m map[string]any
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	np, _, err := patchFromRecord(m)
	if err != nil {
		return err
	}
	*p = np
	return nil
}

// writeRecord renders fields as a JSON object. With bareKeys the names are
// written without quotes, as in the editor's raw data.
func writeRecord(b *bytes.Buffer, fields []patchField, bareKeys bool) error {
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if bareKeys {
			b.WriteString(f.name)
		} else {
			b.WriteString(strconv.Quote(f.name))
		}
		b.WriteByte(':')
		if err := writeValue(b, f.value, bareKeys); err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
	}
	b.WriteByte('}')
	return nil
}

func writeValue(b *bytes.Buffer, v any, bareKeys bool) error {
	switch x := v.(type) {
	case float64:
		b.WriteString(formatNumber(x))
		return nil
	case []float64:
		b.WriteByte('[')
		for i, f := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatNumber(f))
		}
		b.WriteByte(']')
		return nil
	case map[string]any:
		return writeRecord(b, recordFields(x), bareKeys)
	}
	data, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return err
	}
	b.Write(data)
	return nil
}

// formatNumber renders a float the way JSON.stringify does for finite values.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// metadataOrder is the emission order of metadata fields.
var metadataOrder = []string{"author", "backcolor", "background", "name", "notes", "radii", "switchBrand", "switchMount", "switchType"}

// recordFields orders a generic record: metadata names first in their fixed
// order, everything else alphabetically.
func recordFields(m map[string]any) []patchField {
	out := make([]patchField, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range metadataOrder {
		if v, ok := m[k]; ok {
			out = append(out, patchField{k, v})
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(m))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, patchField{k, m[k]})
	}
	return out
}

// ---- record -> Patch ----

// knownPatchFields are the names understood by the decoder.
var knownPatchFields = map[string]bool{
	"r": true, "rx": true, "ry": true, "a": true, "f": true, "f2": true, "fa": true,
	"p": true, "c": true, "t": true, "x": true, "y": true, "w": true, "h": true,
	"x2": true, "y2": true, "w2": true, "h2": true, "n": true, "l": true, "d": true,
	"g": true, "sm": true, "sb": true, "st": true,
}

// fieldError reports a wrongly typed field of a record.
type fieldError struct {
	Field string
	Want  string
	Got   any
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.Field, e.Want, e.Got)
}

// patchFromRecord validates a generic record into a Patch. Null values are
// treated as absent. Unknown field names are returned sorted.
func patchFromRecord(m map[string]any) (Patch, []string, error) {
	var p Patch
	var unknown []string
	for k := range m {
		if !knownPatchFields[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	var err error
	num := func(name string) *float64 {
		if err != nil {
			return nil
		}
		v, ok := m[name]
		if !ok || v == nil {
			return nil
		}
		f, ok := toFloat(v)
		if !ok {
			err = &fieldError{Field: name, Want: "number", Got: v}
			return nil
		}
		return &f
	}
	str := func(name string) *string {
		if err != nil {
			return nil
		}
		v, ok := m[name]
		if !ok || v == nil {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			err = &fieldError{Field: name, Want: "string", Got: v}
			return nil
		}
		return &s
	}
	flag := func(name string) *bool {
		if err != nil {
			return nil
		}
		v, ok := m[name]
		if !ok || v == nil {
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			err = &fieldError{Field: name, Want: "boolean", Got: v}
			return nil
		}
		return &b
	}

	p.R, p.RX, p.RY = num("r"), num("rx"), num("ry")
	if a := num("a"); a != nil {
		ai := int(*a)
		p.A = &ai
	}
	p.F, p.F2 = num("f"), num("f2")
	if err == nil {
		if v, ok := m["fa"]; ok && v != nil {
			p.FA, err = toSizes(v)
		}
	}
	p.P, p.C, p.T = str("p"), str("c"), str("t")
	p.X, p.Y, p.W, p.H = num("x"), num("y"), num("w"), num("h")
	p.X2, p.Y2, p.W2, p.H2 = num("x2"), num("y2"), num("w2"), num("h2")
	p.N, p.L, p.D, p.G = flag("n"), flag("l"), flag("d"), flag("g")
	p.SM, p.SB, p.ST = str("sm"), str("sb"), str("st")
	if err != nil {
		return Patch{}, unknown, err
	}
	return p, unknown, nil
}

// toSizes converts an fa value. Null and empty entries become 0 (absent).
func toSizes(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return append([]float64{}, x...), nil
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			if e == nil {
				continue
			}
			f, ok := toFloat(e)
			if !ok {
				return nil, &fieldError{Field: "fa/" + strconv.Itoa(i), Want: "number", Got: e}
			}
			out[i] = f
		}
		return out, nil
	case string:
		// Older files write fa as newline-separated legend text.
		segs := strings.Split(x, "\n")
		out := make([]float64, len(segs))
		for i, seg := range segs {
			if seg == "" {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(seg), 64)
			if err != nil {
				return nil, &fieldError{Field: "fa/" + strconv.Itoa(i), Want: "number", Got: seg}
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, &fieldError{Field: "fa", Want: "array", Got: v}
}

// toFloat accepts the numeric shapes produced by JSON, YAML and CBOR decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		// json.Number from encoding/json and goccy/go-json
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ---- pointer helpers for building patches ----

func ptr[T any](v T) *T { return &v }
