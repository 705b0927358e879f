package kle

import "context"

// Codec performs bidirectional transformation between a wire representation
// A and the domain representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error) // wire -> domain
	Encode(ctx context.Context, b B) (A, error) // domain -> wire
}

// Transcode decodes a with from and encodes the result with to.
func Transcode[A, C, B any](ctx context.Context, from Codec[A, B], to Codec[C, B], a A) (C, error) {
	b, err := from.Decode(ctx, a)
	if err != nil {
		var zero C
		return zero, err
	}
	return to.Encode(ctx, b)
}

// Normalize re-encodes kbd and decodes the result, yielding the canonical
// form: keys in encoding order and overrides equal to their defaults
// dropped.
func Normalize(kbd *Keyboard) (*Keyboard, error) {
	return Deserialize(Serialize(kbd))
}
