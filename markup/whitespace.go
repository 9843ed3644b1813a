package markup

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// cleanWhitespace applies the whitespace options to text nodes. Bodies of
// script, style, pre and textarea tags are left untouched.
func cleanWhitespace(nodes []*Node, cfg Config) []*Node {
	if !cfg.CleanWhiteSpaces && !cfg.RudeWhiteSpaceCleaning {
		return nodes
	}
	cleanChildren(&nodes, cfg)
	return nodes
}

func cleanChildren(list *[]*Node, cfg Config) {
	kept := (*list)[:0]
	for _, n := range *list {
		switch n.Kind {
		case TextNode:
			if cfg.RudeWhiteSpaceCleaning {
				if n.IsWhitespace() {
					continue
				}
				n.Data = whitespaceRun.ReplaceAllString(strings.TrimSpace(n.Data), " ")
			} else {
				if n.IsWhitespace() && strings.Contains(n.Data, "\n") {
					continue
				}
				n.Data = whitespaceRun.ReplaceAllString(n.Data, " ")
			}
		case TagNode:
			if !preservesWhitespace(n.Name) {
				cleanChildren(&n.Children, cfg)
			}
		}
		kept = append(kept, n)
	}
	for i := len(kept); i < len(*list); i++ {
		(*list)[i] = nil
	}
	*list = kept
}

func preservesWhitespace(name string) bool {
	switch strings.ToLower(name) {
	case "script", "style", "pre", "textarea":
		return true
	}
	return false
}
