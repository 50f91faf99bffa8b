package parsers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrMalformedLiteral is returned when a constrained completion does not match
// the expected list or mapping literal.
var ErrMalformedLiteral = errors.New("malformed literal")

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024
	maxItems      = 500
	maxErrSnippet = 200
)

// ParseStringList parses a list literal such as ['grapes', "juice"] or [1, 2].
// Numeric items are returned in their textual form.
func ParseStringList(content string) ([]string, error) {
	p, err := newLiteralParser(content)
	if err != nil {
		return nil, err
	}
	if err := p.expect('['); err != nil {
		return nil, err
	}

	items := []string{}
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			break
		}
		if len(items) >= maxItems {
			return nil, p.fail("too many items")
		}
		item, err := p.scalar()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.fail("expected ',' or ']'")
		}
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return items, nil
}

// ParseStringDict parses a flat mapping literal such as {"email": "a@b.c"}.
func ParseStringDict(content string) (map[string]string, error) {
	p, err := newLiteralParser(content)
	if err != nil {
		return nil, err
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	out := map[string]string{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			break
		}
		if len(out) >= maxItems {
			return nil, p.fail("too many keys")
		}
		key, err := p.quoted()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		val, err := p.scalar()
		if err != nil {
			return nil, err
		}
		out[key] = val

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.fail("expected ',' or '}'")
		}
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return out, nil
}

type literalParser struct {
	src string
	pos int
}

func newLiteralParser(content string) (*literalParser, error) {
	if len(content) > maxContentLen {
		return nil, fmt.Errorf("%w: content too large", ErrMalformedLiteral)
	}
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("%w: invalid utf8", ErrMalformedLiteral)
	}
	return &literalParser{src: strings.TrimSpace(content)}, nil
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.fail(fmt.Sprintf("expected %q", c))
	}
	p.pos++
	return nil
}

func (p *literalParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.fail("unexpected trailing content")
	}
	return nil
}

func (p *literalParser) scalar() (string, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.quoted()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return "", p.fail("expected string or number")
	}
}

func (p *literalParser) number() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	raw := p.src[start:p.pos]
	if _, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64); err != nil {
		return "", p.fail("invalid number")
	}
	return raw, nil
}

func (p *literalParser) quoted() (string, error) {
	p.skipSpace()
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.fail("expected quoted string")
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.fail("dangling escape")
			}
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
			p.pos++
		case c == '\n':
			return "", p.fail("unterminated string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.fail("unterminated string")
}

func (p *literalParser) fail(reason string) error {
	snippet := p.src
	if len(snippet) > maxErrSnippet {
		snippet = snippet[:maxErrSnippet] + "..."
	}
	return fmt.Errorf("%w: %s at offset %d in %q", ErrMalformedLiteral, reason, p.pos, snippet)
}
