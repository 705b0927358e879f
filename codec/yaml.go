package codec

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	kle "github.com/reoring/kle"
)

// YAML returns a Codec between a YAML document of the normalized model and a
// Keyboard. Fields missing from the document take the model defaults.
func YAML() kle.Codec[[]byte, *kle.Keyboard] { return yamlCodec{} }

type yamlCodec struct{}

func (yamlCodec) Decode(ctx context.Context, data []byte) (*kle.Keyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := wireKeyboard{Meta: wireMeta{Backcolor: kle.DefaultBackcolor}}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding model yaml: %w", err)
	}
	return fromWire(w)
}

func (yamlCodec) Encode(ctx context.Context, kbd *kle.Keyboard) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toWire(kbd)); err != nil {
		return nil, fmt.Errorf("encoding model yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML starts each key from the NewKey defaults.
func (k *wireKey) UnmarshalYAML(node *yaml.Node) error {
	type plain wireKey
	p := plain(wireFromKey(kle.NewKey()))
	if err := node.Decode(&p); err != nil {
		return err
	}
	*k = wireKey(p)
	return nil
}
