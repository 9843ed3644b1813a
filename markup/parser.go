package markup

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/vcrobe/wml/diag"
)

// Placeholders for '<' and '>' inside mustache bodies while the HTML
// tokenizer runs, so that "{{ a < b }}" in text is not read as a tag.
const (
	maskLT = '\x01'
	maskGT = '\x02'
)

var (
	ssiComment = regexp.MustCompile(`<!--#[\s\S]*?-->`)
	unmasker   = strings.NewReplacer(string(rune(maskLT)), "<", string(rune(maskGT)), ">")
)

// Parse tokenizes template text into a raw tree of Tag, Text, Comment, CData,
// Doctype and Instruction nodes.
//
// Markup errors are reported to cfg.ErrorHandler. Without a handler a strict
// one is used, so the first error is returned.
func Parse(text, fileName string, cfg Config) ([]*Node, error) {
	h := cfg.ErrorHandler
	if h == nil {
		h = diag.NewHandler(fileName, text, diag.ModeStrict)
	}
	src := preprocess(text, cfg)

	p := &parser{
		cfg:   cfg,
		desc:  cfg.descriptor(),
		h:     h,
		src:   src,
		lines: newLineIndex(src),
	}
	nodes, err := p.parse()
	if err != nil {
		return nil, err
	}
	return cleanWhitespace(nodes, cfg), nil
}

func preprocess(text string, cfg Config) string {
	if cfg.NormalizeLineFeed {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	if cfg.NeedPreprocess {
		text = strings.TrimPrefix(text, "\ufeff")
		text = ssiComment.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat("\n", strings.Count(m, "\n"))
		})
	}
	return text
}

type parser struct {
	cfg   Config
	desc  TagDescriptor
	h     *diag.Handler
	src   string
	lines lineIndex

	roots  []*Node
	open   []*Node
	masked bool
}

func (p *parser) parse() ([]*Node, error) {
	input := p.src
	if !strings.ContainsAny(input, string([]rune{maskLT, maskGT})) {
		input = maskMustaches(input)
		p.masked = true
	}

	z := html.NewTokenizer(strings.NewReader(input))
	z.SetMaxBuf(0)
	z.AllowCDATA(p.cfg.AllowCDATA)

	offset := 0
	for {
		tt := z.Next()
		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		var err error
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return p.finish()
			}
			err = p.h.Report(diag.KindParse, p.lines.pos(start), "malformed markup: %v", z.Err())
			if err != nil {
				return nil, err
			}
			return p.finish()
		case html.TextToken:
			err = p.text(raw, start)
		case html.StartTagToken, html.SelfClosingTagToken:
			err = p.startTag(raw, start, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			err = p.endTag(raw, start)
		case html.CommentToken:
			err = p.comment(raw, string(z.Text()), start)
		case html.DoctypeToken:
			p.add(&Node{Kind: DoctypeNode, Data: string(z.Text()), Pos: p.lines.pos(start)})
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) top() *Node {
	if len(p.open) == 0 {
		return nil
	}
	return p.open[len(p.open)-1]
}

func (p *parser) add(n *Node) {
	if t := p.top(); t != nil {
		t.Children = append(t.Children, n)
		return
	}
	p.roots = append(p.roots, n)
}

func (p *parser) unmask(s string) string {
	if !p.masked {
		return s
	}
	return unmasker.Replace(s)
}

func (p *parser) text(raw string, start int) error {
	if strings.HasPrefix(raw, "<![CDATA[") {
		data := strings.TrimSuffix(strings.TrimPrefix(raw, "<![CDATA["), "]]>")
		p.add(&Node{Kind: CDataNode, Data: p.unmask(data), Pos: p.lines.pos(start)})
		return nil
	}
	// Adjacent text tokens are merged into one node.
	if t := p.top(); t != nil && len(t.Children) > 0 {
		if last := t.Children[len(t.Children)-1]; last.Kind == TextNode {
			last.Data += p.unmask(raw)
			return nil
		}
	} else if t == nil && len(p.roots) > 0 {
		if last := p.roots[len(p.roots)-1]; last.Kind == TextNode {
			last.Data += p.unmask(raw)
			return nil
		}
	}
	p.add(&Node{Kind: TextNode, Data: p.unmask(raw), Pos: p.lines.pos(start)})
	return nil
}

func (p *parser) comment(raw, text string, start int) error {
	pos := p.lines.pos(start)
	switch {
	case strings.HasPrefix(raw, "<?"):
		data := strings.TrimSuffix(strings.TrimSuffix(strings.TrimPrefix(raw, "<?"), ">"), "?")
		p.add(&Node{Kind: InstructionNode, Data: p.unmask(data), Pos: pos})
	case strings.HasPrefix(raw, "<![CDATA["):
		return p.h.Report(diag.KindParse, pos, "CDATA sections are not allowed")
	case strings.HasPrefix(raw, "<!--"):
		if p.cfg.AllowComments {
			p.add(&Node{Kind: CommentNode, Data: p.unmask(text), Pos: pos})
		}
	default:
		p.add(&Node{Kind: DoctypeNode, Data: p.unmask(text), Pos: pos})
	}
	return nil
}

func (p *parser) startTag(raw string, start int, selfClosing bool) error {
	name, attrs := scanTag(raw)
	n := &Node{Kind: TagNode, Name: name, Pos: p.lines.pos(start), SelfClosing: selfClosing}
	for _, a := range attrs {
		n.Attrs = append(n.Attrs, &Attribute{
			Name:     a.name,
			Value:    p.unmask(a.value),
			HasValue: a.hasValue,
			Pos:      p.lines.pos(start + a.offset),
		})
	}
	p.add(n)
	if selfClosing || (!p.cfg.XML && p.desc.IsVoid(name)) {
		return nil
	}
	p.open = append(p.open, n)
	return nil
}

func (p *parser) endTag(raw string, start int) error {
	name, _ := scanTag(raw)
	pos := p.lines.pos(start)
	if !p.cfg.XML && p.desc.IsVoid(name) {
		return nil
	}
	idx := -1
	for i := len(p.open) - 1; i >= 0; i-- {
		if p.sameName(p.open[i].Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		if p.cfg.CompatibleTreeStructure {
			return nil
		}
		return p.h.Report(diag.KindParse, pos, "unexpected closing tag </%s>", name)
	}
	if !p.cfg.CompatibleTreeStructure {
		for i := len(p.open) - 1; i > idx; i-- {
			unclosed := p.open[i]
			if err := p.h.Report(diag.KindParse, unclosed.Pos, "tag <%s> is not closed before </%s>", unclosed.Name, name); err != nil {
				return err
			}
		}
	}
	p.open = p.open[:idx]
	return nil
}

func (p *parser) sameName(open, closing string) bool {
	if open == closing {
		return true
	}
	return !p.cfg.XML && strings.EqualFold(open, closing)
}

func (p *parser) finish() ([]*Node, error) {
	if !p.cfg.CompatibleTreeStructure {
		for i := len(p.open) - 1; i >= 0; i-- {
			n := p.open[i]
			if err := p.h.Report(diag.KindParse, n.Pos, "tag <%s> is not closed", n.Name); err != nil {
				return nil, err
			}
		}
	}
	p.open = nil
	return p.roots, nil
}

// maskMustaches replaces angle brackets inside "{{ ... }}" with single-byte
// placeholders, keeping every byte offset intact.
func maskMustaches(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	b := []byte(s)
	for i := 0; i+1 < len(b); i++ {
		if b[i] != '{' || b[i+1] != '{' {
			continue
		}
		end := strings.Index(s[i+2:], "}}")
		if end < 0 {
			break
		}
		for j := i + 2; j < i+2+end; j++ {
			switch b[j] {
			case '<':
				b[j] = maskLT
			case '>':
				b[j] = maskGT
			}
		}
		i += end + 3
	}
	return string(b)
}

// lineIndex maps byte offsets to positions with a binary search over line starts.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) pos(offset int) diag.Position {
	line := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return diag.Position{Line: line + 1, Column: offset - l[line] + 1}
}
