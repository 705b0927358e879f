// Package codec provides kle.Codec implementations between wire formats and
// the Keyboard model: the compact row sequence, layout text, and documents
// of the normalized model in JSON, YAML and CBOR.
package codec

import (
	"context"

	kle "github.com/reoring/kle"
)

// Rows returns a Codec between the decoded row sequence and a Keyboard.
func Rows(opts ...kle.ParseOpt) kle.Codec[[]any, *kle.Keyboard] {
	return rowsCodec{opts: opts}
}

type rowsCodec struct{ opts []kle.ParseOpt }

func (c rowsCodec) Decode(ctx context.Context, rows []any) (*kle.Keyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kle.Deserialize(rows, c.opts...)
}

func (c rowsCodec) Encode(ctx context.Context, kbd *kle.Keyboard) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kle.Serialize(kbd), nil
}

// Text returns a Codec between layout text and a Keyboard. With raw set the
// text is the editor's raw data form (rows without enclosing brackets).
func Text(raw bool, opts ...kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] {
	return textCodec{raw: raw, opts: opts}
}

type textCodec struct {
	raw  bool
	opts []kle.ParseOpt
}

func (c textCodec) Decode(ctx context.Context, data []byte) (*kle.Keyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.raw {
		return kle.ParseRaw(data, c.opts...)
	}
	return kle.Parse(data, c.opts...)
}

func (c textCodec) Encode(ctx context.Context, kbd *kle.Keyboard) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.raw {
		return kle.StringifyRaw(kbd)
	}
	return kle.Stringify(kbd)
}
