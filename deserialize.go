package kle

import (
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

// decoderState is the accumulator threaded through a decode pass: the
// running template and the alignment in force. Steps take it by value and
// return the next state.
//
// template.TextSize holds sizes in serialized order; they are remapped when a
// key is finalized. template.TextColor is already normalized (remapped when
// `t` is read).
type decoderState struct {
	template Key
	align    int
}

func newDecoderState() decoderState {
	return decoderState{template: NewKey(), align: defaultAlign}
}

// Deserialize rebuilds a Keyboard from the compact row encoding.
//
// rows[0] may be a metadata record; every other element is a row: a sequence
// of legend strings and patch records (map[string]any, Patch or *Patch).
func Deserialize(rows []any, opts ...ParseOpt) (*Keyboard, error) {
	opt := lastOpt(opts)
	kbd := NewKeyboard()
	st := newDecoderState()
	for r, row := range rows {
		rowPath := pointer("", r)
		switch v := row.(type) {
		case []any:
			var err error
			st, err = st.decodeRow(kbd, v, rowPath, opt)
			if err != nil {
				return nil, err
			}
		case map[string]any:
			if r != 0 {
				return nil, AppendIssues(nil, Issue{
					Path: rowPath, Code: CodeMetadataPlacement, Message: ErrMetadataPlacement.Error(),
					Cause: ErrMetadataPlacement, Offset: -1, InputFragment: fragment(v),
				})
			}
			meta, err := metadataFromRecord(v, rowPath, opt)
			if err != nil {
				return nil, err
			}
			kbd.Meta = meta
		default:
			return nil, formatIssue(rowPath, "unexpected", row)
		}
	}
	return kbd, nil
}

// decodeRow replays one row against the state and closes it.
func (st decoderState) decodeRow(kbd *Keyboard, items []any, rowPath string, opt ParseOpt) (decoderState, error) {
	for k, item := range items {
		itemPath := pointer(rowPath, k)
		switch v := item.(type) {
		case string:
			var key Key
			var err error
			key, st, err = st.finalize(v, itemPath, opt)
			if err != nil {
				return st, err
			}
			kbd.Keys = append(kbd.Keys, key)
		case map[string]any:
			p, unknown, err := patchFromRecord(v)
			if err != nil {
				return st, fieldIssue(itemPath, err, v)
			}
			for _, name := range unknown {
				it := Issue{Path: itemPath + "/" + escapePointer(name), Code: CodeUnknownField,
					Message: "unknown key property " + strconv.Quote(name), Offset: -1}
				if err := opt.report(opt.Strictness.OnUnknownField, it); err != nil {
					return st, err
				}
			}
			if st, err = st.apply(p, k, itemPath, v); err != nil {
				return st, err
			}
		case Patch:
			var err error
			if st, err = st.apply(v, k, itemPath, v); err != nil {
				return st, err
			}
		case *Patch:
			if v == nil {
				return st, formatIssue(itemPath, "unexpected", item)
			}
			var err error
			if st, err = st.apply(*v, k, itemPath, v); err != nil {
				return st, err
			}
		default:
			return st, formatIssue(itemPath, "expected a legend string or a property record", item)
		}
	}
	return st.endRow(), nil
}

// apply folds a patch into the template. k is the item index within the row.
func (st decoderState) apply(p Patch, k int, path string, raw any) (decoderState, error) {
	if k != 0 && p.HasRotation() {
		return st, AppendIssues(nil, Issue{
			Path: path, Code: CodeRotationPlacement, Message: ErrRotationPlacement.Error(),
			Cause: ErrRotationPlacement, Offset: -1, InputFragment: fragment(raw),
		})
	}
	cur := &st.template
	if p.R != nil {
		cur.RotationAngle = *p.R
	}
	if p.RX != nil {
		cur.RotationX = *p.RX
	}
	if p.RY != nil {
		cur.RotationY = *p.RY
	}
	if p.RX != nil || p.RY != nil {
		// A new rotation origin starts a new cluster at that origin.
		cur.X = cur.RotationX
		cur.Y = cur.RotationY
	}
	if p.A != nil {
		st.align = *p.A
	}
	if p.F != nil {
		cur.Default.TextSize = *p.F
		cur.TextSize = Slots[float64]{}
	}
	if p.F2 != nil && *p.F2 != 0 {
		for i := 1; i < LegendCount; i++ {
			cur.TextSize.Set(i, *p.F2)
		}
	}
	if p.FA != nil {
		cur.TextSize = Slots[float64]{}
		for i, f := range p.FA {
			if f != 0 {
				cur.TextSize.Set(i, f)
			}
		}
	}
	if p.P != nil {
		cur.Profile = *p.P
	}
	if p.C != nil {
		cur.Color = *p.C
	}
	if p.T != nil {
		split := strings.Split(*p.T, "\n")
		if split[0] != "" {
			cur.Default.TextColor = split[0]
		}
		colors, _ := splitSlots(split)
		cur.TextColor, _ = reorderLabelsIn(colors, st.align)
	}
	if p.X != nil {
		cur.X += *p.X
	}
	if p.Y != nil {
		cur.Y += *p.Y
	}
	if p.W != nil {
		cur.Width, cur.Width2 = *p.W, *p.W
	}
	if p.H != nil {
		cur.Height, cur.Height2 = *p.H, *p.H
	}
	if p.X2 != nil {
		cur.X2 = *p.X2
	}
	if p.Y2 != nil {
		cur.Y2 = *p.Y2
	}
	if p.W2 != nil {
		cur.Width2 = *p.W2
	}
	if p.H2 != nil {
		cur.Height2 = *p.H2
	}
	if p.N != nil {
		cur.Nub = *p.N
	}
	if p.L != nil {
		cur.Stepped = *p.L
	}
	if p.D != nil {
		cur.Decal = *p.D
	}
	if p.G != nil {
		cur.Ghost = *p.G
	}
	if p.SM != nil {
		cur.SM = *p.SM
	}
	if p.SB != nil {
		cur.SB = *p.SB
	}
	if p.ST != nil {
		cur.ST = *p.ST
	}
	return st, nil
}

// finalize snapshots the template into a new key carrying legend, then
// advances the template to the next key position.
func (st decoderState) finalize(legend, path string, opt ParseOpt) (Key, decoderState, error) {
	key := st.template.Clone()
	if key.Width2 == 0 {
		key.Width2 = st.template.Width
	}
	if key.Height2 == 0 {
		key.Height2 = st.template.Height
	}

	raw, overflow := splitSlots(strings.Split(legend, "\n"))
	var dropped []int
	key.Labels, dropped = reorderLabelsIn(raw, st.align)
	key.TextSize, _ = reorderLabelsIn(st.template.TextSize, st.align)
	if overflow > 0 || len(dropped) > 0 {
		it := Issue{Path: path, Code: CodeDroppedLegend, Offset: -1, InputFragment: fragment(legend),
			Message: "legend has " + strconv.Itoa(overflow+len(dropped)) + " segment(s) with no slot at alignment " + strconv.Itoa(st.align)}
		if err := opt.report(opt.Strictness.OnDroppedLegend, it); err != nil {
			return Key{}, st, err
		}
	}

	for i := 0; i < LegendCount; i++ {
		if !key.Labels.Has(i) {
			key.TextSize.Clear(i)
			key.TextColor.Clear(i)
		}
		if v, ok := key.TextSize.Get(i); ok && v == key.Default.TextSize {
			key.TextSize.Clear(i)
		}
		if v, ok := key.TextColor.Get(i); ok && v == key.Default.TextColor {
			key.TextColor.Clear(i)
		}
	}

	cur := &st.template
	cur.X += cur.Width
	cur.Width, cur.Height = 1, 1
	cur.X2, cur.Y2, cur.Width2, cur.Height2 = 0, 0, 0, 0
	cur.Nub, cur.Stepped, cur.Decal = false, false, false
	return key, st, nil
}

// endRow moves the template to the start of the next row, anchored at the
// active rotation origin.
func (st decoderState) endRow() decoderState {
	st.template.Y++
	st.template.X = st.template.RotationX
	return st
}

// ---- metadata ----

// metadataFromRecord copies recognized metadata fields. Empty strings keep
// the default.
func metadataFromRecord(m map[string]any, path string, opt ParseOpt) (KeyboardMetadata, error) {
	meta := NewKeyboardMetadata()
	fields := map[string]*string{
		"author": &meta.Author, "backcolor": &meta.Backcolor, "name": &meta.Name,
		"notes": &meta.Notes, "radii": &meta.Radii, "switchBrand": &meta.SwitchBrand,
		"switchMount": &meta.SwitchMount, "switchType": &meta.SwitchType,
	}
	for _, k := range recordFields(m) {
		fieldPath := path + "/" + escapePointer(k.name)
		if k.value == nil {
			continue
		}
		if dst, ok := fields[k.name]; ok {
			s, ok := k.value.(string)
			if !ok {
				return meta, fieldIssue(path, &fieldError{Field: k.name, Want: "string", Got: k.value}, m)
			}
			if s != "" {
				*dst = s
			}
			continue
		}
		if k.name == "background" {
			bg, ok := k.value.(map[string]any)
			if !ok {
				return meta, fieldIssue(path, &fieldError{Field: k.name, Want: "object", Got: k.value}, m)
			}
			name, _ := bg["name"].(string)
			style, _ := bg["style"].(string)
			meta.Background = &Background{Name: name, Style: style}
			continue
		}
		it := Issue{Path: fieldPath, Code: CodeUnknownField, Message: "unknown metadata property " + strconv.Quote(k.name), Offset: -1}
		if err := opt.report(opt.Strictness.OnUnknownField, it); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// ---- issue helpers ----

func formatIssue(path, msg string, data any) Issues {
	if path == "" {
		path = "/"
	}
	return AppendIssues(nil, Issue{Path: path, Code: CodeFormat, Message: msg, Cause: ErrFormat, Offset: -1, InputFragment: fragment(data)})
}

func fieldIssue(path string, err error, data any) Issues {
	if fe, ok := err.(*fieldError); ok {
		path = path + "/" + fe.Field
	}
	return AppendIssues(nil, Issue{Path: path, Code: CodeFormat, Message: err.Error(), Cause: ErrFormat, Offset: -1, InputFragment: fragment(data)})
}

// fragment renders data for diagnostics; best effort.
func fragment(data any) string {
	if data == nil {
		return ""
	}
	b, err := gojson.MarshalNoEscape(data)
	if err != nil {
		return ""
	}
	const maxFragment = 120
	if len(b) > maxFragment {
		return string(b[:maxFragment]) + "..."
	}
	return string(b)
}

func pointer(base string, i int) string { return base + "/" + strconv.Itoa(i) }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string { return pointerEscaper.Replace(s) }
