package kle

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// encoderState mirrors the decoder template so each emitted patch carries
// exactly the difference the decoder needs.
type encoderState struct {
	template  Key
	sizes     Slots[float64] // decoder template sizes, serialized order
	textColor string         // last emitted `t`
	align     int
}

func newEncoderState() encoderState {
	st := encoderState{template: NewKey(), align: defaultAlign}
	st.textColor = st.template.Default.TextColor
	st.template.Y-- // incremented by the first row
	return st
}

// Serialize encodes kbd as the compact row sequence. Keys are written in
// rotation-cluster, row and column order; kbd itself is not modified.
//
// The result holds a metadata record (map[string]any) when any metadata
// differs from the defaults, followed by rows of legend strings and Patch
// values.
func Serialize(kbd *Keyboard) []any {
	rows := []any{}
	if kbd == nil {
		return rows
	}
	if meta := metadataRecord(kbd.Meta); len(meta) > 0 {
		rows = append(rows, meta)
	}

	st := newEncoderState()
	var row []any
	newRow := true
	for _, key := range sortedKeys(kbd.Keys) {
		if len(row) > 0 && st.breaksRow(key) {
			rows = append(rows, row)
			row = nil
			newRow = true
		}
		if newRow {
			st = st.startRow(key)
			newRow = false
		}
		var p Patch
		var legend string
		p, legend, st = st.encodeKey(key)
		if !p.Empty() {
			row = append(row, p)
		}
		row = append(row, legend)
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// sortedKeys returns a stably sorted copy of keys.
func sortedKeys(keys []Key) []Key {
	out := slices.Clone(keys)
	slices.SortStableFunc(out, func(a, b Key) int {
		return cmp.Or(
			cmp.Compare(math.Mod(a.RotationAngle+360, 360), math.Mod(b.RotationAngle+360, 360)),
			cmp.Compare(a.RotationX, b.RotationX),
			cmp.Compare(a.RotationY, b.RotationY),
			cmp.Compare(a.Y, b.Y),
			cmp.Compare(a.X, b.X),
		)
	})
	return out
}

// breaksRow reports whether key cannot continue the current row.
func (st encoderState) breaksRow(key Key) bool {
	t := st.template
	return key.Y != t.Y ||
		key.RotationAngle != t.RotationAngle ||
		key.RotationX != t.RotationX ||
		key.RotationY != t.RotationY
}

// startRow performs the decoder's row advance for a row starting with key.
// A changed rotation origin resets y to the origin, as the decoder does when
// it reads rx or ry.
func (st encoderState) startRow(key Key) encoderState {
	t := &st.template
	t.Y++
	if key.RotationX != t.RotationX || key.RotationY != t.RotationY {
		t.Y = key.RotationY
	}
	t.X = key.RotationX
	return st
}

// encodeKey returns the patch (possibly empty) and legend string for key and
// the state after the decoder has consumed both.
func (st encoderState) encodeKey(key Key) (Patch, string, encoderState) {
	var p Patch
	t := &st.template

	align := chooseAlignment(key.Labels, key.TextColor)
	labels := reorderLabelsOut(key.Labels, align)
	colors := reorderLabelsOut(key.TextColor, align)
	sizes := reorderLabelsOut(key.TextSize, align)

	if key.RotationAngle != t.RotationAngle {
		p.R = ptr(key.RotationAngle)
		t.RotationAngle = key.RotationAngle
	}
	if key.RotationX != t.RotationX {
		p.RX = ptr(key.RotationX)
		t.RotationX = key.RotationX
	}
	if key.RotationY != t.RotationY {
		p.RY = ptr(key.RotationY)
		t.RotationY = key.RotationY
	}
	if dy := key.Y - t.Y; dy != 0 {
		p.Y = ptr(dy)
		t.Y += dy
	}
	if dx := key.X - t.X; dx != 0 {
		p.X = ptr(dx)
		t.X += dx
	}
	t.X += key.Width

	if key.Color != t.Color {
		p.C = ptr(key.Color)
		t.Color = key.Color
	}
	if tc := textColorString(key.Default.TextColor, labels, colors); tc != st.textColor ||
		(align != st.align && strings.Contains(tc, "\n")) {
		p.T = ptr(tc)
		st.textColor = tc
	}
	if key.Ghost != t.Ghost {
		p.G = ptr(key.Ghost)
		t.Ghost = key.Ghost
	}
	if key.Profile != t.Profile {
		p.P = ptr(key.Profile)
		t.Profile = key.Profile
	}
	if key.SM != t.SM {
		p.SM = ptr(key.SM)
		t.SM = key.SM
	}
	if key.SB != t.SB {
		p.SB = ptr(key.SB)
		t.SB = key.SB
	}
	if key.ST != t.ST {
		p.ST = ptr(key.ST)
		t.ST = key.ST
	}
	if align != st.align {
		p.A = ptr(align)
		st.align = align
	}

	def := key.Default.TextSize
	if def != t.Default.TextSize {
		p.F = ptr(def)
		t.Default.TextSize = def
		st.sizes = Slots[float64]{}
	}
	want := wantedSizes(sizes, labels, def)
	if !sizesMatch(st.sizes, want, labels, def) {
		switch v, ok := f2Candidate(st.sizes, want, labels, def); {
		case want.Empty():
			// Only f clears the template sizes.
			p.F = ptr(def)
			st.sizes = Slots[float64]{}
		case ok:
			p.F2 = ptr(v)
			for i := 1; i < LegendCount; i++ {
				st.sizes.Set(i, v)
			}
		default:
			fa := make([]float64, want.Len())
			for i := range fa {
				fa[i] = want.At(i)
			}
			p.FA = fa
			st.sizes = want
		}
	}

	if key.Width != 1 {
		p.W = ptr(key.Width)
	}
	if key.Height != 1 {
		p.H = ptr(key.Height)
	}
	if key.Width2 != key.Width {
		p.W2 = ptr(key.Width2)
	}
	if key.Height2 != key.Height {
		p.H2 = ptr(key.Height2)
	}
	if key.X2 != 0 {
		p.X2 = ptr(key.X2)
	}
	if key.Y2 != 0 {
		p.Y2 = ptr(key.Y2)
	}
	if key.Nub {
		p.N = ptr(true)
	}
	if key.Stepped {
		p.L = ptr(true)
	}
	if key.Decal {
		p.D = ptr(true)
	}
	return p, joinSlots(labels), st
}

// textColorString builds the `t` value. Serialized position 0 doubles as the
// default color, so when it carries its own color every other labeled slot
// spells out def.
func textColorString(def string, labels, colors Slots[string]) string {
	if !colors.Has(0) {
		colors.Set(0, def)
	} else {
		for i := 1; i < LegendCount; i++ {
			if labels.Has(i) && !colors.Has(i) {
				colors.Set(i, def)
			}
		}
	}
	for i := 1; i < LegendCount; i++ {
		if !labels.Has(i) {
			colors.Clear(i)
		}
	}
	return joinSlots(colors)
}

// joinSlots joins present slots with newlines, empty for absent ones, and
// drops trailing separators.
func joinSlots(s Slots[string]) string {
	n := s.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = s.At(i)
	}
	return strings.Join(parts, "\n")
}

// wantedSizes keeps the sizes the decoder must reproduce: labeled and
// different from the default.
func wantedSizes(sizes Slots[float64], labels Slots[string], def float64) Slots[float64] {
	var out Slots[float64]
	for i := 0; i < LegendCount; i++ {
		if v, ok := sizes.Get(i); ok && labels.Has(i) && v != def && v != 0 {
			out.Set(i, v)
		}
	}
	return out
}

// effectiveSize is the size the decoder assigns at serialized position i.
func effectiveSize(cur Slots[float64], i int, def float64) (float64, bool) {
	v, ok := cur.Get(i)
	if !ok || v == def {
		return 0, false
	}
	return v, true
}

// sizesMatch reports whether the template sizes already yield want on every
// labeled position.
func sizesMatch(cur, want Slots[float64], labels Slots[string], def float64) bool {
	for i := 0; i < LegendCount; i++ {
		if !labels.Has(i) {
			continue
		}
		got, ok := effectiveSize(cur, i, def)
		w, wok := want.Get(i)
		if ok != wok || got != w {
			return false
		}
	}
	return true
}

// f2Candidate reports whether a single f2 value reproduces want: every
// labeled position 1..11 shares one size and position 0 already matches.
func f2Candidate(cur, want Slots[float64], labels Slots[string], def float64) (float64, bool) {
	if labels.Has(0) {
		got, ok := effectiveSize(cur, 0, def)
		w, wok := want.Get(0)
		if ok != wok || got != w {
			return 0, false
		}
	}
	var v float64
	found := false
	for i := 1; i < LegendCount; i++ {
		if !labels.Has(i) {
			continue
		}
		w, ok := want.Get(i)
		if !ok || (found && w != v) {
			return 0, false
		}
		v, found = w, true
	}
	return v, found
}

// metadataRecord lists the metadata fields that differ from the defaults.
func metadataRecord(m KeyboardMetadata) map[string]any {
	def := NewKeyboardMetadata()
	out := map[string]any{}
	put := func(name, v, d string) {
		if v != d {
			out[name] = v
		}
	}
	put("author", m.Author, def.Author)
	put("backcolor", m.Backcolor, def.Backcolor)
	if m.Background != nil {
		out["background"] = map[string]any{"name": m.Background.Name, "style": m.Background.Style}
	}
	put("name", m.Name, def.Name)
	put("notes", m.Notes, def.Notes)
	put("radii", m.Radii, def.Radii)
	put("switchBrand", m.SwitchBrand, def.SwitchBrand)
	put("switchMount", m.SwitchMount, def.SwitchMount)
	put("switchType", m.SwitchType, def.SwitchType)
	return out
}
