package expr

import (
	"fmt"
	"strings"
	"sync"
)

// Parser parses expressions and caches the resulting programs by their
// canonical form. It is safe for concurrent use.
type Parser struct {
	mu    sync.Mutex
	cache map[string]*Program
}

// NewParser returns a Parser with an empty cache.
func NewParser() *Parser {
	return &Parser{cache: make(map[string]*Program)}
}

// Parse parses src. Structurally identical sources yield the same *Program.
func (p *Parser) Parse(src string) (*Program, error) {
	body, err := parseBody(src)
	if err != nil {
		return nil, err
	}
	key := body.String()

	p.mu.Lock()
	defer p.mu.Unlock()
	if prog, ok := p.cache[key]; ok {
		return prog, nil
	}
	prog := &Program{Source: strings.TrimSpace(src), Body: body}
	p.cache[key] = prog
	return prog, nil
}

// Len returns the number of cached programs.
func (p *Parser) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// Parse parses src without caching.
func Parse(src string) (*Program, error) {
	body, err := parseBody(src)
	if err != nil {
		return nil, err
	}
	return &Program{Source: strings.TrimSpace(src), Body: body}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level variables.
func MustParse(src string) *Program {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

func parseBody(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Source: src, Message: "empty expression"}
	}
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	ps := &parseState{src: src, tokens: tokens}
	n, err := ps.parseExpression()
	if err != nil {
		return nil, err
	}
	if t := ps.peek(); t.Type != TokenEOF {
		return nil, ps.errorf(t, "unexpected %s", t)
	}
	return n, nil
}

type parseState struct {
	src    string
	tokens []Token
	pos    int
}

func (ps *parseState) peek() Token { return ps.tokens[ps.pos] }

func (ps *parseState) next() Token {
	t := ps.tokens[ps.pos]
	if t.Type != TokenEOF {
		ps.pos++
	}
	return t
}

func (ps *parseState) acceptOp(ops ...string) (string, bool) {
	t := ps.peek()
	if t.Type != TokenOperator {
		return "", false
	}
	for _, op := range ops {
		if t.Text == op {
			ps.pos++
			return op, true
		}
	}
	return "", false
}

func (ps *parseState) expectOp(op string) error {
	if _, ok := ps.acceptOp(op); !ok {
		t := ps.peek()
		return ps.errorf(t, "expected %q, got %s", op, t)
	}
	return nil
}

func (ps *parseState) errorf(t Token, format string, args ...any) error {
	return &SyntaxError{Source: ps.src, Offset: t.Offset, Message: fmt.Sprintf(format, args...)}
}

func (ps *parseState) parseExpression() (Node, error) {
	cond, err := ps.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if _, ok := ps.acceptOp("?"); !ok {
		return cond, nil
	}
	then, err := ps.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := ps.expectOp(":"); err != nil {
		return nil, err
	}
	els, err := ps.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Ternary{Cond: cond, Then: then, Else: els}, nil
}

// precedence levels, loosest first.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (ps *parseState) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return ps.parseUnary()
	}
	x, err := ps.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ps.acceptOp(binaryLevels[level]...)
		if !ok {
			return x, nil
		}
		y, err := ps.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (ps *parseState) parseUnary() (Node, error) {
	if op, ok := ps.acceptOp("!", "-", "+"); ok {
		x, err := ps.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return ps.parsePostfix()
}

func (ps *parseState) parsePostfix() (Node, error) {
	n, err := ps.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case ps.peek().is(TokenOperator, "."):
			ps.next()
			t := ps.next()
			if t.Type != TokenIdentifier && t.Type != TokenKeyword {
				return nil, ps.errorf(t, "expected property name, got %s", t)
			}
			n, err = ps.member(n, Segment{Name: t.Text}, t)
		case ps.peek().is(TokenOperator, "["):
			t := ps.next()
			var idx Node
			if idx, err = ps.parseExpression(); err != nil {
				return nil, err
			}
			if err := ps.expectOp("]"); err != nil {
				return nil, err
			}
			n, err = ps.member(n, Segment{Index: idx}, t)
		case ps.peek().is(TokenOperator, "("):
			ps.next()
			var args []Node
			if args, err = ps.parseList(")"); err != nil {
				return nil, err
			}
			n = &Call{Callee: n, Args: args}
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// member extends a path. Property access on anything other than a path
// (a call result, a literal) is not supported by the getter helpers.
func (ps *parseState) member(n Node, seg Segment, at Token) (Node, error) {
	path, ok := n.(*Path)
	if !ok {
		return nil, ps.errorf(at, "property access is only allowed on variables")
	}
	segs := make([]Segment, len(path.Segments), len(path.Segments)+1)
	copy(segs, path.Segments)
	return &Path{Root: path.Root, Segments: append(segs, seg)}, nil
}

func (ps *parseState) parseList(closing string) ([]Node, error) {
	var items []Node
	if _, ok := ps.acceptOp(closing); ok {
		return items, nil
	}
	for {
		item, err := ps.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if _, ok := ps.acceptOp(closing); ok {
			return items, nil
		}
		if err := ps.expectOp(","); err != nil {
			return nil, err
		}
	}
}

func (ps *parseState) parsePrimary() (Node, error) {
	t := ps.next()
	switch t.Type {
	case TokenNumber:
		return &Literal{Value: t.Num}, nil
	case TokenString:
		return &Literal{Value: t.Text}, nil
	case TokenKeyword:
		switch t.Text {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null":
			return &Literal{Value: nil}, nil
		}
		return &Literal{Value: Undefined}, nil
	case TokenIdentifier:
		return &Path{Root: t.Text}, nil
	case TokenOperator:
		switch t.Text {
		case "(":
			n, err := ps.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := ps.expectOp(")"); err != nil {
				return nil, err
			}
			return n, nil
		case "[":
			items, err := ps.parseList("]")
			if err != nil {
				return nil, err
			}
			return &Array{Items: items}, nil
		case "{":
			return ps.parseObject()
		}
	}
	return nil, ps.errorf(t, "unexpected %s", t)
}

func (ps *parseState) parseObject() (Node, error) {
	obj := &Object{}
	if _, ok := ps.acceptOp("}"); ok {
		return obj, nil
	}
	for {
		t := ps.next()
		switch t.Type {
		case TokenIdentifier, TokenKeyword, TokenString, TokenNumber:
		default:
			return nil, ps.errorf(t, "expected object key, got %s", t)
		}
		if err := ps.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := ps.parseExpression()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, t.Text)
		obj.Values = append(obj.Values, v)
		if _, ok := ps.acceptOp("}"); ok {
			return obj, nil
		}
		if err := ps.expectOp(","); err != nil {
			return nil, err
		}
	}
}
