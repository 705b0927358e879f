package kle

import json "github.com/goccy/go-json"

// Default values of a freshly created key and keyboard.
const (
	DefaultKeyColor       = "#cccccc"
	DefaultTextColor      = "#000000"
	DefaultTextSize       = 3.0
	DefaultBackcolor      = "#eeeeee"
	defaultAlign          = 4
	defaultKeyWidthHeight = 1.0
)

// LegendDefaults are the fallback legend color and size used wherever a
// position-specific override is absent.
type LegendDefaults struct {
	TextColor string  `json:"textColor" yaml:"textColor"`
	TextSize  float64 `json:"textSize" yaml:"textSize"`
}

// Key is one key of the layout. It is a value type; copies never share state.
type Key struct {
	Color     string         `json:"color"`
	Labels    Slots[string]  `json:"labels"`
	TextColor Slots[string]  `json:"textColor"`
	TextSize  Slots[float64] `json:"textSize"`
	Default   LegendDefaults `json:"default"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Secondary rectangle, for ISO-Enter-like shapes.
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Width2  float64 `json:"width2"`
	Height2 float64 `json:"height2"`

	// Rotation center and angle in degrees (positive is clockwise).
	RotationX     float64 `json:"rotation_x"`
	RotationY     float64 `json:"rotation_y"`
	RotationAngle float64 `json:"rotation_angle"`

	Decal   bool `json:"decal"`
	Ghost   bool `json:"ghost"`
	Stepped bool `json:"stepped"`
	Nub     bool `json:"nub"`

	Profile string `json:"profile"`
	SM      string `json:"sm"` // switch mount
	SB      string `json:"sb"` // switch brand
	ST      string `json:"st"` // switch type
}

// NewKey returns a key with all defaults applied.
func NewKey() Key {
	return Key{
		Color:   DefaultKeyColor,
		Default: LegendDefaults{TextColor: DefaultTextColor, TextSize: DefaultTextSize},
		Width:   defaultKeyWidthHeight,
		Height:  defaultKeyWidthHeight,
		Width2:  defaultKeyWidthHeight,
		Height2: defaultKeyWidthHeight,
	}
}

// Clone returns an independent copy of k. Every field of Key is a value
// (strings, numbers, booleans and fixed-size slot arrays), so the structural
// copy is complete.
func (k Key) Clone() Key { return k }

// UnmarshalJSON fills fields missing from data with the NewKey defaults.
func (k *Key) UnmarshalJSON(data []byte) error {
	type plain Key
	p := plain(NewKey())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = Key(p)
	return nil
}

// Background names a case background texture.
type Background struct {
	Name  string `json:"name" yaml:"name"`
	Style string `json:"style" yaml:"style"`
}

// KeyboardMetadata holds descriptive layout-wide properties.
type KeyboardMetadata struct {
	Author      string      `json:"author"`
	Backcolor   string      `json:"backcolor"`
	Background  *Background `json:"background"`
	Name        string      `json:"name"`
	Notes       string      `json:"notes"`
	Radii       string      `json:"radii"`
	SwitchBrand string      `json:"switchBrand"`
	SwitchMount string      `json:"switchMount"`
	SwitchType  string      `json:"switchType"`
}

// NewKeyboardMetadata returns metadata with all defaults applied.
func NewKeyboardMetadata() KeyboardMetadata {
	return KeyboardMetadata{Backcolor: DefaultBackcolor}
}

// UnmarshalJSON fills fields missing from data with the defaults.
func (m *KeyboardMetadata) UnmarshalJSON(data []byte) error {
	type plain KeyboardMetadata
	p := plain(NewKeyboardMetadata())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = KeyboardMetadata(p)
	return nil
}

// Keyboard is a layout: its metadata and its keys, in order.
type Keyboard struct {
	Meta KeyboardMetadata `json:"meta"`
	Keys []Key            `json:"keys"`
}

// NewKeyboard returns an empty keyboard with default metadata.
func NewKeyboard() *Keyboard {
	return &Keyboard{Meta: NewKeyboardMetadata(), Keys: []Key{}}
}
