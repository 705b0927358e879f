// Package json5 adapts titanous/json5 to the engine's token source. The
// document is decoded into an ordered tree first; members keep their input
// order and repeated names so the enforcement wrapper sees the text as
// written.
package json5

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strconv"
	"sync/atomic"

	j5 "github.com/titanous/json5"

	eng "github.com/reoring/kle/internal/engine"
)

// SyntaxError reports malformed input. Offset counts the bytes read up to
// and including the offending one.
type SyntaxError = j5.SyntaxError

type node struct {
	kind    eng.Kind
	str     string
	num     float64
	boolean bool
	items   []node
	members []member
}

type member struct {
	name  string
	value node
}

var memberSeq atomic.Uint64

// memberKey numbers members as they are decoded so a repeated name keeps
// its own entry.
type memberKey struct {
	seq  uint64
	name string
}

func (k *memberKey) UnmarshalText(b []byte) error {
	k.seq = memberSeq.Add(1)
	k.name = string(b)
	return nil
}

func (n *node) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return io.ErrUnexpectedEOF
	}
	switch data[0] {
	case '{':
		n.kind = eng.KindBeginObject
		return n.decodeMembers(data)
	case '[':
		n.kind = eng.KindBeginArray
		n.items = []node{}
		return j5.Unmarshal(data, &n.items)
	}
	var v any
	if err := j5.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		n.kind = eng.KindNull
	case bool:
		n.kind, n.boolean = eng.KindBool, v
	case string:
		n.kind, n.str = eng.KindString, v
	case float64:
		n.kind, n.num = eng.KindNumber, v
	default:
		return errors.New("json5: unexpected literal " + strconv.Quote(string(data)))
	}
	return nil
}

func (n *node) decodeMembers(data []byte) error {
	var ordered map[memberKey]node
	if err := j5.Unmarshal(data, &ordered); err == nil {
		keys := make([]memberKey, 0, len(ordered))
		for k := range ordered {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, func(a, b memberKey) int {
			switch {
			case a.seq < b.seq:
				return -1
			case a.seq > b.seq:
				return 1
			}
			return 0
		})
		n.members = make([]member, 0, len(keys))
		for _, k := range keys {
			n.members = append(n.members, member{name: k.name, value: ordered[k]})
		}
		return nil
	}
	// Text keys cannot be empty; an object with an "" member is decoded by
	// name instead, without input order or repeats.
	var byName map[string]node
	if err := j5.Unmarshal(data, &byName); err != nil {
		return err
	}
	names := make([]string, 0, len(byName))
	for k := range byName {
		names = append(names, k)
	}
	slices.Sort(names)
	n.members = make([]member, 0, len(names))
	for _, k := range names {
		n.members = append(n.members, member{name: k, value: byName[k]})
	}
	return nil
}

type cursor struct {
	n       *node
	next    int
	keyDone bool
}

type source struct {
	data    []byte
	root    node
	err     error
	decoded bool
	emitted bool
	stack   []cursor
}

// NewReader reads r fully and wraps it into an engine.TokenSource for JSON5.
func NewReader(r io.Reader) eng.TokenSource {
	data, err := io.ReadAll(r)
	return &source{data: data, err: err}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON5.
func NewBytes(b []byte) eng.TokenSource { return &source{data: b} }

func (s *source) NextToken() (eng.Token, error) {
	if !s.decoded {
		s.decoded = true
		if s.err == nil {
			s.err = s.decode()
		}
	}
	if s.err != nil {
		return eng.Token{}, s.err
	}
	if !s.emitted {
		s.emitted = true
		return s.enter(&s.root), nil
	}
	for len(s.stack) > 0 {
		top := &s.stack[len(s.stack)-1]
		switch top.n.kind {
		case eng.KindBeginArray:
			if top.next == len(top.n.items) {
				s.stack = s.stack[:len(s.stack)-1]
				return eng.Token{Kind: eng.KindEndArray, Offset: -1}, nil
			}
			child := &top.n.items[top.next]
			top.next++
			return s.enter(child), nil
		default:
			if top.next == len(top.n.members) {
				s.stack = s.stack[:len(s.stack)-1]
				return eng.Token{Kind: eng.KindEndObject, Offset: -1}, nil
			}
			m := &top.n.members[top.next]
			if !top.keyDone {
				top.keyDone = true
				return eng.Token{Kind: eng.KindKey, String: m.name, Offset: -1}, nil
			}
			top.keyDone = false
			top.next++
			return s.enter(&m.value), nil
		}
	}
	return eng.Token{}, io.EOF
}

func (s *source) decode() error {
	if len(bytes.TrimSpace(s.data)) == 0 {
		return io.EOF
	}
	return j5.Unmarshal(s.data, &s.root)
}

// enter returns the token opening n, descending into containers.
func (s *source) enter(n *node) eng.Token {
	switch n.kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		s.stack = append(s.stack, cursor{n: n})
		return eng.Token{Kind: n.kind, Offset: -1}
	case eng.KindString:
		return eng.Token{Kind: eng.KindString, String: n.str, Offset: -1}
	case eng.KindNumber:
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(n.num, 'g', -1, 64), Offset: -1}
	case eng.KindBool:
		return eng.Token{Kind: eng.KindBool, Bool: n.boolean, Offset: -1}
	}
	return eng.Token{Kind: eng.KindNull, Offset: -1}
}

// Location is unknown once the tree is built; syntax errors carry their own
// offset.
func (s *source) Location() int64 { return -1 }
