package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	kle "github.com/reoring/kle"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// keyboard always produces identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

// zstd encoder and decoder are safe for concurrent EncodeAll/DecodeAll use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compression selects the frame wrapped around a CBOR document.
type Compression int

const (
	Uncompressed Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("compression(%d)", int(c))
}

// CBOR returns a Codec between a CBOR document of the normalized model and a
// Keyboard, optionally wrapped in a zstd or lz4 frame.
func CBOR(c Compression) kle.Codec[[]byte, *kle.Keyboard] { return cborCodec{compression: c} }

type cborCodec struct{ compression Compression }

func (c cborCodec) Decode(ctx context.Context, data []byte) (*kle.Keyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plain, err := decompress(c.compression, data)
	if err != nil {
		return nil, fmt.Errorf("decompressing model cbor: %w", err)
	}
	var w wireKeyboard
	if err := decMode.Unmarshal(plain, &w); err != nil {
		return nil, fmt.Errorf("decoding model cbor: %w", err)
	}
	return fromWire(w)
}

func (c cborCodec) Encode(ctx context.Context, kbd *kle.Keyboard) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(toWire(kbd))
	if err != nil {
		return nil, fmt.Errorf("encoding model cbor: %w", err)
	}
	out, err := compress(c.compression, data)
	if err != nil {
		return nil, fmt.Errorf("compressing model cbor: %w", err)
	}
	return out, nil
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case Uncompressed:
		return data, nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown compression %v", c)
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case Uncompressed:
		return data, nil
	case Zstd:
		return zstdDecoder.DecodeAll(data, nil)
	case LZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown compression %v", c)
}
