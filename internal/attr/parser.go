// Package attr lexes and parses the payload of metaprogram annotations.
//
// Grammar:
//
//	attribute = identifier [ "(" param { "," param } ")" ] .
//	param     = identifier ":" value .
//	value     = string | "true" | "false" | number .
package attr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cmmoran/metareflect/pkg/model"
)

// ParseError reports the first violated expectation in a payload.
type ParseError struct {
	Offset int
	Msg    string
	Src    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("attribute %q: offset %d: %s", e.Src, e.Offset, e.Msg)
}

// Marked returns the payload with a "|>" marker inserted at the error
// offset, for log output.
func (e *ParseError) Marked() string {
	off := e.Offset
	if off < 0 {
		off = 0
	}
	if off > len(e.Src) {
		off = len(e.Src)
	}
	return e.Src[:off] + "|>" + e.Src[off:]
}

type parser struct {
	src    string
	tokens []Token
	pos    int
}

// Parse parses one attribute payload. On failure the returned attribute
// still carries the leading identifier as its name when there is one.
func Parse(src string) (model.Attribute, error) {
	p := &parser{src: src, tokens: Lex(src)}
	a, err := p.attribute()
	if err != nil {
		a.Params = nil
		a.Err = err
		if a.Name == "" {
			a.Name = strings.TrimSpace(src)
		}
		return a, err
	}
	return a, nil
}

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	if tok.Type == Error {
		return &ParseError{Offset: tok.Offset, Msg: tok.Text, Src: p.src}
	}
	return &ParseError{Offset: tok.Offset, Msg: fmt.Sprintf(format, args...), Src: p.src}
}

func (p *parser) expect(t TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != t {
		return tok, p.errorf(tok, "expected %s, got %s", t, tok.Type)
	}
	return tok, nil
}

func (p *parser) attribute() (model.Attribute, error) {
	var a model.Attribute
	name, err := p.expect(Identifier)
	if err != nil {
		return a, err
	}
	a.Name = name.Text

	if p.peek().Type == OpenParen {
		p.advance()
		for {
			param, err := p.param()
			if err != nil {
				return a, err
			}
			a.Params = append(a.Params, param)

			tok := p.advance()
			if tok.Type == CloseParen {
				break
			}
			if tok.Type != Comma {
				return a, p.errorf(tok, "expected Comma or CloseParen, got %s", tok.Type)
			}
		}
	}

	if _, err := p.expect(End); err != nil {
		return a, err
	}
	return a, nil
}

func (p *parser) param() (model.Param, error) {
	var param model.Param
	name, err := p.expect(Identifier)
	if err != nil {
		return param, err
	}
	param.Name = name.Text
	if _, err := p.expect(Colon); err != nil {
		return param, err
	}

	tok := p.advance()
	switch tok.Type {
	case String:
		param.Kind = model.ParamString
		param.String = tok.Text
	case Number:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return param, p.errorf(tok, "integer %s out of range", tok.Text)
		}
		param.Kind = model.ParamInt
		param.Int = n
	case Identifier:
		switch tok.Text {
		case "true", "false":
			param.Kind = model.ParamBool
			param.Bool = tok.Text == "true"
		default:
			return param, p.errorf(tok, "expected value, got identifier %s", tok.Text)
		}
	default:
		return param, p.errorf(tok, "expected value, got %s", tok.Type)
	}
	return param, nil
}
