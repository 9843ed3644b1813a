package markup

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/vcrobe/wml/diag"
)

// TagDescriptor tells the parser how particular tag names behave.
type TagDescriptor interface {
	// IsVoid reports tags that never have children or a closing tag.
	IsVoid(name string) bool
	// IsRawText reports tags whose body is verbatim text.
	IsRawText(name string) bool
}

// Config holds parser options.
type Config struct {
	XML                     bool
	AllowComments           bool
	AllowCDATA              bool
	CompatibleTreeStructure bool
	RudeWhiteSpaceCleaning  bool
	NormalizeLineFeed       bool
	CleanWhiteSpaces        bool
	NeedPreprocess          bool
	TagDescriptor           TagDescriptor
	ErrorHandler            *diag.Handler
}

// HTMLTags is the default TagDescriptor using HTML5 semantics.
type HTMLTags struct{}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

func (HTMLTags) IsVoid(name string) bool {
	return voidElements[atom.Lookup([]byte(strings.ToLower(name)))]
}

func (HTMLTags) IsRawText(name string) bool {
	switch atom.Lookup([]byte(strings.ToLower(name))) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// XMLTags treats every tag as an ordinary container.
type XMLTags struct{}

func (XMLTags) IsVoid(string) bool { return false }
func (XMLTags) IsRawText(string) bool { return false }

func (c *Config) descriptor() TagDescriptor {
	if c.TagDescriptor != nil {
		return c.TagDescriptor
	}
	if c.XML {
		return XMLTags{}
	}
	return HTMLTags{}
}
