package kle_test

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	kle "github.com/reoring/kle"
)

// keyView is what a reader of a key sees: legends with their resolved color
// and size, geometry and the per-key properties.
type keyView struct {
	Geometry [11]float64
	Flags    [4]bool
	Props    [5]string
	Labels   [kle.LegendCount]string
	Colors   [kle.LegendCount]string
	Sizes    [kle.LegendCount]float64
}

func viewOf(keys []kle.Key) []keyView {
	out := make([]keyView, 0, len(keys))
	for _, k := range keys {
		v := keyView{
			Geometry: [11]float64{k.X, k.Y, k.Width, k.Height, k.X2, k.Y2, k.Width2, k.Height2, k.RotationX, k.RotationY, k.RotationAngle},
			Flags:    [4]bool{k.Decal, k.Ghost, k.Stepped, k.Nub},
			Props:    [5]string{k.Color, k.Profile, k.SM, k.SB, k.ST},
		}
		for i := 0; i < kle.LegendCount; i++ {
			label, ok := k.Labels.Get(i)
			if !ok || label == "" {
				continue
			}
			v.Labels[i] = label
			v.Colors[i] = k.Default.TextColor
			if c, ok := k.TextColor.Get(i); ok && c != "" {
				v.Colors[i] = c
			}
			v.Sizes[i] = k.Default.TextSize
			if s, ok := k.TextSize.Get(i); ok {
				v.Sizes[i] = s
			}
		}
		out = append(out, v)
	}
	return out
}

var (
	palette  = []string{"#000000", "#ff0000", "#00ff00", "#0000ff", "#cccccc"}
	profiles = []string{"", "DSA", "SA R1", "OEM"}
	clusters = [][3]float64{{0, 0, 0}, {15, 1, 2}, {-30, 5, 2.5}, {90, 0.5, 0}}
)

// quarter returns a multiple of 0.25, so positions stay exact under the
// relative offsets of the row encoding.
func quarter(r *rand.Rand, lo, hi int) float64 { return float64(lo+r.IntN(hi-lo+1)) / 4 }

func randomKey(r *rand.Rand) kle.Key {
	k := kle.NewKey()
	c := clusters[r.IntN(len(clusters))]
	k.RotationAngle, k.RotationX, k.RotationY = c[0], c[1], c[2]
	k.X, k.Y = quarter(r, -8, 60), quarter(r, -8, 24)
	k.Width, k.Height = quarter(r, 1, 12), quarter(r, 1, 8)
	k.Width2, k.Height2 = k.Width, k.Height
	if r.IntN(8) == 0 {
		k.X2, k.Y2 = quarter(r, -2, 2), quarter(r, -2, 2)
		k.Width2, k.Height2 = quarter(r, 1, 8), quarter(r, 1, 8)
	}
	k.Color = palette[r.IntN(len(palette))]
	k.Profile = profiles[r.IntN(len(profiles))]
	k.Decal, k.Ghost, k.Stepped, k.Nub = r.IntN(6) == 0, r.IntN(6) == 0, r.IntN(6) == 0, r.IntN(6) == 0
	k.Default.TextColor = palette[r.IntN(len(palette))]
	k.Default.TextSize = float64(1 + r.IntN(9))
	for i := 0; i < kle.LegendCount; i++ {
		if r.IntN(3) != 0 {
			continue
		}
		k.Labels.Set(i, "L"+strconv.Itoa(i))
		if r.IntN(3) == 0 {
			k.TextColor.Set(i, palette[r.IntN(len(palette))])
		}
		if r.IntN(3) == 0 {
			k.TextSize.Set(i, float64(1+r.IntN(9)))
		}
	}
	return k
}

func TestRoundTrip_RandomKeyboards(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 2000; n++ {
		kbd := kle.NewKeyboard()
		if r.IntN(2) == 0 {
			kbd.Meta.Name = "layout " + strconv.Itoa(n)
		}
		for range 1 + r.IntN(16) {
			kbd.Keys = append(kbd.Keys, randomKey(r))
		}
		rows := kle.Serialize(kbd)
		got, err := kle.Deserialize(rows)
		if err != nil {
			t.Fatalf("layout %d: %v\nrows=%v", n, err, rows)
		}
		if diff := gocmp.Diff(kbd.Meta, got.Meta); diff != "" {
			t.Fatalf("layout %d metadata (-want +got):\n%s", n, diff)
		}
		if diff := gocmp.Diff(viewOf(byPosition(kbd.Keys)), viewOf(got.Keys)); diff != "" {
			t.Fatalf("layout %d keys (-want +got):\n%s\nrows=%v", n, diff, rows)
		}
	}
}

func randomLegends(r *rand.Rand) string {
	parts := make([]string, 1+r.IntN(kle.LegendCount))
	for i := range parts {
		if r.IntN(3) != 0 {
			parts[i] = "g" + strconv.Itoa(i)
		}
	}
	return strings.Join(parts, "\n")
}

func randomPatch(r *rand.Rand, firstInRow bool) map[string]any {
	p := map[string]any{}
	maybe := func(odds int, name string, v func() any) {
		if r.IntN(odds) == 0 {
			p[name] = v()
		}
	}
	if firstInRow {
		maybe(4, "r", func() any { return []float64{-45, 0, 10, 30}[r.IntN(4)] })
		maybe(5, "rx", func() any { return quarter(r, 0, 12) })
		maybe(5, "ry", func() any { return quarter(r, 0, 12) })
	}
	maybe(3, "a", func() any { return float64(r.IntN(kle.AlignCount)) })
	maybe(5, "f", func() any { return float64(1 + r.IntN(9)) })
	maybe(5, "f2", func() any { return float64(r.IntN(9)) })
	maybe(5, "fa", func() any {
		fa := make([]any, 1+r.IntN(kle.LegendCount))
		for i := range fa {
			fa[i] = float64(r.IntN(6))
		}
		return fa
	})
	maybe(4, "t", func() any {
		cs := make([]string, 1+r.IntN(4))
		for i := range cs {
			if r.IntN(3) != 0 {
				cs[i] = palette[r.IntN(len(palette))]
			}
		}
		return strings.Join(cs, "\n")
	})
	maybe(4, "x", func() any { return quarter(r, -4, 8) })
	maybe(4, "y", func() any { return quarter(r, -4, 8) })
	maybe(4, "w", func() any { return quarter(r, 1, 10) })
	maybe(6, "h2", func() any { return quarter(r, 1, 8) })
	maybe(5, "c", func() any { return palette[r.IntN(len(palette))] })
	maybe(8, "g", func() any { return r.IntN(2) == 0 })
	maybe(8, "n", func() any { return r.IntN(2) == 0 })
	return p
}

func TestRoundTrip_RandomRows(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for n := 0; n < 2000; n++ {
		var rows []any
		for range 1 + r.IntN(6) {
			var row []any
			for i := range 1 + r.IntN(8) {
				if r.IntN(2) == 0 {
					if p := randomPatch(r, i == 0); len(p) > 0 {
						row = append(row, p)
					}
				}
				row = append(row, randomLegends(r))
			}
			rows = append(rows, row)
		}
		first, err := kle.Deserialize(rows)
		if err != nil {
			t.Fatalf("rows %d: %v\nrows=%v", n, err, rows)
		}
		again, err := kle.Deserialize(kle.Serialize(first))
		if err != nil {
			t.Fatalf("rows %d re-decode: %v", n, err)
		}
		if diff := gocmp.Diff(viewOf(byPosition(first.Keys)), viewOf(again.Keys)); diff != "" {
			t.Fatalf("rows %d (-first +again):\n%s\nrows=%v", n, diff, rows)
		}
	}
}
