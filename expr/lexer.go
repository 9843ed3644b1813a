package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType classifies an expression token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenKeyword
	TokenNumber
	TokenString
	TokenOperator
)

var keywords = map[string]bool{
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
}

// operators are matched longest first.
var operators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"<", ">", "+", "-", "*", "/", "%", "!", "?", ":", ".", ",", "(", ")", "[", "]", "{", "}",
}

// Token is a lexed expression token.
type Token struct {
	Type   TokenType
	Text   string
	Num    float64
	Offset int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of expression"
	}
	return strconv.Quote(t.Text)
}

func (t Token) is(typ TokenType, text string) bool {
	return t.Type == typ && t.Text == text
}

// SyntaxError is returned for malformed expressions.
type SyntaxError struct {
	Source  string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expression %q at column %d: %s", e.Source, e.Offset+1, e.Message)
}

// Tokenize splits an expression into tokens, ending with a TokenEOF.
func Tokenize(src string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			word := src[start:i]
			typ := TokenIdentifier
			if keywords[word] {
				typ = TokenKeyword
			}
			tokens = append(tokens, Token{Type: typ, Text: word, Offset: start})
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				i++
				if i < len(src) && (src[i] == '+' || src[i] == '-') {
					i++
				}
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			num, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &SyntaxError{Source: src, Offset: start, Message: "invalid number " + strconv.Quote(src[start:i])}
			}
			tokens = append(tokens, Token{Type: TokenNumber, Text: src[start:i], Num: num, Offset: start})
		case c == '"' || c == '\'':
			s, end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenString, Text: s, Offset: i})
			i = end
		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, &SyntaxError{Source: src, Offset: i, Message: fmt.Sprintf("unexpected character %q", c)}
			}
			tokens = append(tokens, Token{Type: TokenOperator, Text: op, Offset: i})
			i += len(op)
		}
	}
	return append(tokens, Token{Type: TokenEOF, Offset: len(src)}), nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(src[i])
			}
		default:
			b.WriteByte(c)
		}
		i++
	}
	return "", 0, &SyntaxError{Source: src, Offset: start, Message: "unterminated string"}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
