package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// MaxDepth bounds container nesting accepted by the parsers.
const MaxDepth = 10000

// Parse parses JSON text into a Node.
//
// The input must hold exactly one JSON value encoded as UTF-8. Duplicate
// object keys follow the last-wins policy.
func Parse(text []byte) (*Node, error) {
	if !utf8.Valid(text) {
		return nil, &ParseError{Offset: -1, Msg: "input is not valid UTF-8"}
	}
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	p := &jsonParser{dec: dec}
	tok, err := p.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Offset: 0, Msg: "empty document"}
		}
		return nil, err
	}
	root, err := p.value(tok, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Offset: dec.InputOffset(), Msg: "trailing data after document"}
	}
	return root, nil
}

type jsonParser struct {
	dec *json.Decoder
}

func (p *jsonParser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "malformed JSON", Cause: err}
	}
	return tok, nil
}

func (p *jsonParser) value(tok json.Token, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "nesting too deep"}
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object(depth)
		case '[':
			return p.array(depth)
		default:
			return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "unexpected delimiter " + t.String()}
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := Number(t.String())
		if err != nil {
			return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "invalid number", Cause: err}
		}
		return n, nil
	default:
		return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "unexpected token"}
	}
}

func (p *jsonParser) object(depth int) (*Node, error) {
	var fields []Field
	for {
		tok, err := p.next()
		if err != nil {
			return nil, p.eof(err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return Object(fields...), nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &ParseError{Offset: p.dec.InputOffset(), Msg: "object key must be a string"}
		}
		tok, err = p.next()
		if err != nil {
			return nil, p.eof(err)
		}
		child, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: key, Value: child})
	}
}

func (p *jsonParser) array(depth int) (*Node, error) {
	var items []*Node
	for {
		tok, err := p.next()
		if err != nil {
			return nil, p.eof(err)
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return Array(items...), nil
		}
		child, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		items = append(items, child)
	}
}

func (p *jsonParser) eof(err error) error {
	if errors.Is(err, io.EOF) {
		return &ParseError{Offset: p.dec.InputOffset(), Msg: "unexpected end of input"}
	}
	return err
}
