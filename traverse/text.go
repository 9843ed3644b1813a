package traverse

import (
	"regexp"
	"strings"

	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/wast"
)

var singleEntity = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);$`)

const legacyInclude = "%{INCLUDE"

// translatable reports whether literal text should be translated. Blank
// text, a single HTML entity and legacy include directives are not.
func translatable(text string) bool {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return false
	case singleEntity.MatchString(text):
		return false
	case strings.HasPrefix(text, legacyInclude):
		return false
	}
	return true
}

func (t *traverser) visitText(n *markup.Node, key string) (wast.Node, error) {
	content, err := t.splitText(n.Data, n.Pos, t.opts.Translate)
	if err != nil || len(content) == 0 {
		return nil, err
	}
	return &wast.Text{Base: wast.Base{NodeKey: key, Pos: n.Pos}, Content: content}, nil
}

// splitText splits text into literal data, {{ expression }} and
// {[ translation ]} parts. With translate set, literal parts passing the
// translation predicate become auto translations; their surrounding
// whitespace stays literal.
func (t *traverser) splitText(s string, pos diag.Position, translate bool) ([]wast.TextContent, error) {
	var out []wast.TextContent
	literal := func(text string) {
		if text == "" {
			return
		}
		if !translate || !translatable(text) {
			out = append(out, &wast.TextData{Value: text})
			return
		}
		trimmed := strings.TrimSpace(text)
		start := strings.Index(text, trimmed)
		if start > 0 {
			out = append(out, &wast.TextData{Value: text[:start]})
		}
		out = append(out, &wast.Translation{Base: wast.Base{Pos: pos}, Text: trimmed})
		if rest := text[start+len(trimmed):]; rest != "" {
			out = append(out, &wast.TextData{Value: rest})
		}
	}

	for s != "" {
		i := strings.Index(s, "{{")
		j := strings.Index(s, "{[")
		if i < 0 && j < 0 {
			literal(s)
			break
		}
		open, closing := "{{", "}}"
		if i < 0 || (j >= 0 && j < i) {
			i, open, closing = j, "{[", "]}"
		}
		literal(s[:i])

		end := strings.Index(s[i+2:], closing)
		if end < 0 {
			if err := t.report(diag.KindParse, pos, "unclosed %q in %q", open, s[i:]); err != nil {
				return nil, err
			}
			out = append(out, &wast.TextData{Value: s[i:]})
			break
		}
		body := s[i+2 : i+2+end]
		s = s[i+2+end+2:]

		if open == "{[" {
			text, context := body, ""
			if before, after, ok := strings.Cut(body, "@@"); ok {
				context, text = before, after
			}
			text = strings.TrimSpace(text)
			if text == "" {
				if err := t.report(diag.KindParse, pos, "empty translation {[%s]}", body); err != nil {
					return nil, err
				}
				continue
			}
			out = append(out, &wast.Translation{
				Base:    wast.Base{Pos: pos},
				Text:    text,
				Context: strings.TrimSpace(context),
				Manual:  true,
			})
			continue
		}

		p, err := t.parseExpression(body, pos)
		if p == nil {
			if err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, &wast.Expression{Program: p})
	}
	return out, nil
}
