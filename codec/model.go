package codec

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"

	kle "github.com/reoring/kle"
)

// JSON returns a Codec between an indented JSON document of the normalized
// model and a Keyboard. Fields missing from the document take the model
// defaults; comments and trailing commas are accepted on decode.
func JSON() kle.Codec[[]byte, *kle.Keyboard] { return jsonCodec{} }

type jsonCodec struct{}

func (jsonCodec) Decode(ctx context.Context, data []byte) (*kle.Keyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kbd := kle.NewKeyboard()
	if err := json.Unmarshal(jsonc.ToJSON(data), kbd); err != nil {
		return nil, fmt.Errorf("decoding model json: %w", err)
	}
	if kbd.Keys == nil {
		kbd.Keys = []kle.Key{}
	}
	return kbd, nil
}

func (jsonCodec) Encode(ctx context.Context, kbd *kle.Keyboard) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(kbd, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding model json: %w", err)
	}
	return append(data, '\n'), nil
}

// ---- wire model shared by the YAML and CBOR codecs ----

// wireKeyboard is the document shape of a Keyboard. Legend slots are lists
// with null holes, trimmed after the last present entry.
type wireKeyboard struct {
	Meta wireMeta  `yaml:"meta" cbor:"meta"`
	Keys []wireKey `yaml:"keys" cbor:"keys"`
}

type wireMeta struct {
	Author      string          `yaml:"author,omitempty" cbor:"author,omitempty"`
	Backcolor   string          `yaml:"backcolor" cbor:"backcolor"`
	Background  *kle.Background `yaml:"background,omitempty" cbor:"background,omitempty"`
	Name        string          `yaml:"name,omitempty" cbor:"name,omitempty"`
	Notes       string          `yaml:"notes,omitempty" cbor:"notes,omitempty"`
	Radii       string          `yaml:"radii,omitempty" cbor:"radii,omitempty"`
	SwitchBrand string          `yaml:"switchBrand,omitempty" cbor:"switchBrand,omitempty"`
	SwitchMount string          `yaml:"switchMount,omitempty" cbor:"switchMount,omitempty"`
	SwitchType  string          `yaml:"switchType,omitempty" cbor:"switchType,omitempty"`
}

type wireKey struct {
	Color     string             `yaml:"color" cbor:"color"`
	Labels    []*string          `yaml:"labels,flow,omitempty" cbor:"labels,omitempty"`
	TextColor []*string          `yaml:"textColor,flow,omitempty" cbor:"textColor,omitempty"`
	TextSize  []*float64         `yaml:"textSize,flow,omitempty" cbor:"textSize,omitempty"`
	Default   kle.LegendDefaults `yaml:"default" cbor:"default"`

	X       float64 `yaml:"x" cbor:"x"`
	Y       float64 `yaml:"y" cbor:"y"`
	Width   float64 `yaml:"width" cbor:"width"`
	Height  float64 `yaml:"height" cbor:"height"`
	X2      float64 `yaml:"x2,omitempty" cbor:"x2,omitempty"`
	Y2      float64 `yaml:"y2,omitempty" cbor:"y2,omitempty"`
	Width2  float64 `yaml:"width2" cbor:"width2"`
	Height2 float64 `yaml:"height2" cbor:"height2"`

	RotationX     float64 `yaml:"rotation_x,omitempty" cbor:"rotation_x,omitempty"`
	RotationY     float64 `yaml:"rotation_y,omitempty" cbor:"rotation_y,omitempty"`
	RotationAngle float64 `yaml:"rotation_angle,omitempty" cbor:"rotation_angle,omitempty"`

	Decal   bool `yaml:"decal,omitempty" cbor:"decal,omitempty"`
	Ghost   bool `yaml:"ghost,omitempty" cbor:"ghost,omitempty"`
	Stepped bool `yaml:"stepped,omitempty" cbor:"stepped,omitempty"`
	Nub     bool `yaml:"nub,omitempty" cbor:"nub,omitempty"`

	Profile string `yaml:"profile,omitempty" cbor:"profile,omitempty"`
	SM      string `yaml:"sm,omitempty" cbor:"sm,omitempty"`
	SB      string `yaml:"sb,omitempty" cbor:"sb,omitempty"`
	ST      string `yaml:"st,omitempty" cbor:"st,omitempty"`
}

func toWire(kbd *kle.Keyboard) wireKeyboard {
	if kbd == nil {
		kbd = kle.NewKeyboard()
	}
	m := kbd.Meta
	w := wireKeyboard{
		Meta: wireMeta{
			Author: m.Author, Backcolor: m.Backcolor, Background: m.Background, Name: m.Name,
			Notes: m.Notes, Radii: m.Radii, SwitchBrand: m.SwitchBrand,
			SwitchMount: m.SwitchMount, SwitchType: m.SwitchType,
		},
		Keys: make([]wireKey, len(kbd.Keys)),
	}
	for i, k := range kbd.Keys {
		w.Keys[i] = wireFromKey(k)
	}
	return w
}

func wireFromKey(k kle.Key) wireKey {
	return wireKey{
		Color: k.Color, Labels: k.Labels.Pointers(), TextColor: k.TextColor.Pointers(),
		TextSize: k.TextSize.Pointers(), Default: k.Default,
		X: k.X, Y: k.Y, Width: k.Width, Height: k.Height,
		X2: k.X2, Y2: k.Y2, Width2: k.Width2, Height2: k.Height2,
		RotationX: k.RotationX, RotationY: k.RotationY, RotationAngle: k.RotationAngle,
		Decal: k.Decal, Ghost: k.Ghost, Stepped: k.Stepped, Nub: k.Nub,
		Profile: k.Profile, SM: k.SM, SB: k.SB, ST: k.ST,
	}
}

func fromWire(w wireKeyboard) (*kle.Keyboard, error) {
	kbd := kle.NewKeyboard()
	m := w.Meta
	kbd.Meta = kle.KeyboardMetadata{
		Author: m.Author, Backcolor: m.Backcolor, Background: m.Background, Name: m.Name,
		Notes: m.Notes, Radii: m.Radii, SwitchBrand: m.SwitchBrand,
		SwitchMount: m.SwitchMount, SwitchType: m.SwitchType,
	}
	for i, wk := range w.Keys {
		if len(wk.Labels) > kle.LegendCount || len(wk.TextColor) > kle.LegendCount || len(wk.TextSize) > kle.LegendCount {
			return nil, fmt.Errorf("key %d: more than %d legend slots", i, kle.LegendCount)
		}
		kbd.Keys = append(kbd.Keys, kle.Key{
			Color: wk.Color, Labels: kle.SlotsOf(wk.Labels), TextColor: kle.SlotsOf(wk.TextColor),
			TextSize: kle.SlotsOf(wk.TextSize), Default: wk.Default,
			X: wk.X, Y: wk.Y, Width: wk.Width, Height: wk.Height,
			X2: wk.X2, Y2: wk.Y2, Width2: wk.Width2, Height2: wk.Height2,
			RotationX: wk.RotationX, RotationY: wk.RotationY, RotationAngle: wk.RotationAngle,
			Decal: wk.Decal, Ghost: wk.Ghost, Stepped: wk.Stepped, Nub: wk.Nub,
			Profile: wk.Profile, SM: wk.SM, SB: wk.SB, ST: wk.ST,
		})
	}
	return kbd, nil
}
