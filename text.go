package kle

import (
	"bytes"
	"encoding/hex"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/zeebo/blake3"
)

// Stringify serializes kbd and renders the rows as compact JSON.
func Stringify(kbd *Keyboard) ([]byte, error) {
	return writeRows(Serialize(kbd), false)
}

// StringifyRaw renders the editor's raw data form: one row per line, bare
// property names, no enclosing brackets.
func StringifyRaw(kbd *Keyboard) ([]byte, error) {
	return writeRows(Serialize(kbd), true)
}

func writeRows(rows []any, raw bool) ([]byte, error) {
	var b bytes.Buffer
	if !raw {
		b.WriteByte('[')
	}
	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
			if raw {
				b.WriteByte('\n')
			}
		}
		if err := writeRow(&b, row, raw); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	if !raw {
		b.WriteByte(']')
	}
	return b.Bytes(), nil
}

func writeRow(b *bytes.Buffer, row any, bareKeys bool) error {
	items, ok := row.([]any)
	if !ok {
		return writeValue(b, row, bareKeys)
	}
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		var err error
		switch v := item.(type) {
		case Patch:
			err = writeRecord(b, v.fields(), bareKeys)
		case *Patch:
			err = writeRecord(b, v.fields(), bareKeys)
		case string:
			var data []byte
			if data, err = gojson.MarshalNoEscape(v); err == nil {
				b.Write(data)
			}
		default:
			err = writeValue(b, item, bareKeys)
		}
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	b.WriteByte(']')
	return nil
}

// Digest is a BLAKE3-256 layout fingerprint.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Fingerprint hashes the compact serialized form of kbd. Layouts that
// serialize identically (for example after a decode/encode cycle) share a
// fingerprint regardless of key order.
func Fingerprint(kbd *Keyboard) (Digest, error) {
	data, err := Stringify(kbd)
	if err != nil {
		return Digest{}, err
	}
	return blake3.Sum256(data), nil
}
