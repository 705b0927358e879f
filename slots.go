package kle

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// LegendCount is the number of legend positions on a key.
const LegendCount = 12

// Slots is a fixed-length sparse sequence indexed by normalized legend
// position. Each slot is either present with a value or absent; absent is
// never conflated with the zero value of T.
type Slots[T comparable] struct {
	vals [LegendCount]T
	has  [LegendCount]bool
}

// SlotsOf builds Slots from a slice where nil entries are absent. Entries past
// LegendCount are ignored.
func SlotsOf[T comparable](vals []*T) Slots[T] {
	var s Slots[T]
	for i, v := range vals {
		if v != nil {
			s.Set(i, *v)
		}
	}
	return s
}

// Get returns the value at i and whether it is present.
func (s Slots[T]) Get(i int) (T, bool) {
	if i < 0 || i >= LegendCount || !s.has[i] {
		var zero T
		return zero, false
	}
	return s.vals[i], true
}

// At returns the value at i, or the zero value when absent.
func (s Slots[T]) At(i int) T {
	v, _ := s.Get(i)
	return v
}

// Has reports whether slot i is present.
func (s Slots[T]) Has(i int) bool { return i >= 0 && i < LegendCount && s.has[i] }

// Set stores v at i. Indices outside the slot range are ignored.
func (s *Slots[T]) Set(i int, v T) {
	if i < 0 || i >= LegendCount {
		return
	}
	s.vals[i] = v
	s.has[i] = true
}

// Clear marks slot i absent.
func (s *Slots[T]) Clear(i int) {
	if i < 0 || i >= LegendCount {
		return
	}
	var zero T
	s.vals[i] = zero
	s.has[i] = false
}

// Len returns one past the highest present index (0 when empty).
func (s Slots[T]) Len() int {
	for i := LegendCount - 1; i >= 0; i-- {
		if s.has[i] {
			return i + 1
		}
	}
	return 0
}

// Empty reports whether no slot is present.
func (s Slots[T]) Empty() bool { return s.Len() == 0 }

// Equal compares presence and values slot by slot.
func (s Slots[T]) Equal(o Slots[T]) bool {
	for i := 0; i < LegendCount; i++ {
		if s.has[i] != o.has[i] {
			return false
		}
		if s.has[i] && s.vals[i] != o.vals[i] {
			return false
		}
	}
	return true
}

// Pointers returns the slots as a slice trimmed after the last present value,
// with nil for absent entries.
func (s Slots[T]) Pointers() []*T {
	n := s.Len()
	if n == 0 {
		return nil
	}
	out := make([]*T, n)
	for i := 0; i < n; i++ {
		if s.has[i] {
			v := s.vals[i]
			out[i] = &v
		}
	}
	return out
}

// MarshalJSON renders the slots as an array with null holes.
func (s Slots[T]) MarshalJSON() ([]byte, error) {
	p := s.Pointers()
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// UnmarshalJSON accepts an array of at most LegendCount entries with null holes.
func (s *Slots[T]) UnmarshalJSON(data []byte) error {
	*s = Slots[T]{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var p []*T
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SlotsOf(p)
	return nil
}
