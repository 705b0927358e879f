package kle

// AlignCount is the number of alignment flags (three bits: center x, center y,
// center front).
const AlignCount = 8

// noSlot marks a serialized position that has no normalized destination at a
// given alignment.
const noSlot = -1

// labelMap maps a serialized legend position to its normalized position,
// depending on the alignment flags.
//
// Normalized positions read top->bottom, left->right:
//
//	0 1 2   top row
//	3 4 5   middle row
//	6 7 8   bottom row
//	9 10 11 front
var labelMap = [AlignCount][LegendCount]int{
	//0  1  2  3  4  5  6  7  8  9 10 11     align flags
	{0, 6, 2, 8, 9, 11, 3, 5, 1, 4, 7, 10},          // 0 = no centering
	{1, 7, -1, -1, 9, 11, 4, -1, -1, -1, -1, 10},    // 1 = center x
	{3, -1, 5, -1, 9, 11, -1, -1, 4, -1, -1, 10},    // 2 = center y
	{4, -1, -1, -1, 9, 11, -1, -1, -1, -1, -1, 10},  // 3 = center x & y
	{0, 6, 2, 8, 10, -1, 3, 5, 1, 4, 7, -1},         // 4 = center front (default)
	{1, 7, -1, -1, 10, -1, 4, -1, -1, -1, -1, -1},   // 5 = center front & x
	{3, -1, 5, -1, 10, -1, -1, -1, 4, -1, -1, -1},   // 6 = center front & y
	{4, -1, -1, -1, 10, -1, -1, -1, -1, -1, -1, -1}, // 7 = center front & x & y
}

// serializedFor is the inverse of labelMap: serializedFor[align][normalized]
// is the serialized position, or noSlot.
var serializedFor [AlignCount][LegendCount]int

// disallowedAlignmentForLabels[pos] lists the alignments that cannot carry a
// legend at normalized position pos.
var disallowedAlignmentForLabels [LegendCount][]int

// alignPreference is the order in which alignments are tried when encoding.
// Front-centered variants come first; they are the most common and pack densely.
var alignPreference = [AlignCount]int{7, 5, 6, 4, 3, 1, 2, 0}

func init() {
	for a := 0; a < AlignCount; a++ {
		for n := 0; n < LegendCount; n++ {
			serializedFor[a][n] = noSlot
		}
		for s, n := range labelMap[a] {
			if n != noSlot {
				serializedFor[a][n] = s
			}
		}
	}
	for n := 0; n < LegendCount; n++ {
		for a := 0; a < AlignCount; a++ {
			if serializedFor[a][n] == noSlot {
				disallowedAlignmentForLabels[n] = append(disallowedAlignmentForLabels[n], a)
			}
		}
	}
}

// alignIndex folds an arbitrary alignment value onto the table. Only the
// three alignment bits carry meaning.
func alignIndex(align int) int { return align & (AlignCount - 1) }

// LabelPosition returns the normalized position of serialized position pos at
// the given alignment, and false when the alignment has no slot for it.
func LabelPosition(align, pos int) (int, bool) {
	if pos < 0 || pos >= LegendCount {
		return 0, false
	}
	n := labelMap[alignIndex(align)][pos]
	return n, n != noSlot
}

// DisallowedAlignments returns the alignments that cannot represent a legend at
// normalized position pos.
func DisallowedAlignments(pos int) []int {
	if pos < 0 || pos >= LegendCount {
		return nil
	}
	return append([]int(nil), disallowedAlignmentForLabels[pos]...)
}

// reorderLabelsIn moves serialized-order values to their normalized slots.
// Entries whose position has no slot at align are dropped; dropped reports
// their serialized indices.
func reorderLabelsIn[T comparable](in Slots[T], align int) (out Slots[T], dropped []int) {
	m := &labelMap[alignIndex(align)]
	for i := 0; i < LegendCount; i++ {
		v, ok := in.Get(i)
		if !ok {
			continue
		}
		if m[i] == noSlot {
			dropped = append(dropped, i)
			continue
		}
		out.Set(m[i], v)
	}
	return out, dropped
}

// splitSlots turns a newline-joined legend string into serialized-order slots.
// Empty segments are absent; segments past LegendCount are reported as
// overflow.
func splitSlots(segments []string) (s Slots[string], overflow int) {
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if i >= LegendCount {
			overflow++
			continue
		}
		s.Set(i, seg)
	}
	return s, overflow
}

// reorderLabelsOut is the inverse of reorderLabelsIn: it writes normalized
// values to their serialized positions at align. Values whose position has no
// slot at align are left out.
func reorderLabelsOut[T comparable](in Slots[T], align int) Slots[T] {
	var out Slots[T]
	for s, n := range labelMap[alignIndex(align)] {
		if n == noSlot {
			continue
		}
		if v, ok := in.Get(n); ok {
			out.Set(s, v)
		}
	}
	return out
}

// chooseAlignment picks an alignment, in preference order, that can carry
// every present legend. The base choice is the first one allowed; as a
// tie-break, the first allowed alignment whose serialized position 0 has no
// per-position color is taken instead, since that position also carries the
// default legend color on decode. This can emit a different alignment than
// the plain first choice for colored keys. Alignment 0 accepts every
// position, so a result always exists.
func chooseAlignment(labels, colors Slots[string]) int {
	var allowed [AlignCount]bool
	for a := range allowed {
		allowed[a] = true
	}
	for n := 0; n < LegendCount; n++ {
		if v, ok := labels.Get(n); !ok || v == "" {
			continue
		}
		for _, a := range disallowedAlignmentForLabels[n] {
			allowed[a] = false
		}
	}
	first := -1
	for _, a := range alignPreference {
		if !allowed[a] {
			continue
		}
		if !colors.Has(labelMap[a][0]) {
			return a
		}
		if first < 0 {
			first = a
		}
	}
	if first < 0 {
		return 0
	}
	return first
}
