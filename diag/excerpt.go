package diag

import (
	"fmt"
	"strings"
)

// PositionAt converts a byte offset in source to a line/column position.
func PositionAt(source string, offset int) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > len(source) {
		offset = len(source)
	}
	before := source[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset + 1
	if nl := strings.LastIndexByte(before, '\n'); nl >= 0 {
		col = offset - nl
	}
	return Position{Line: line, Column: col}
}

// SourceLine returns the 1-indexed line of source, or "" when out of range.
func SourceLine(source string, line int) string {
	lines := strings.Split(source, "\n")
	if line > 0 && line <= len(lines) {
		return lines[line-1]
	}
	return ""
}

// Excerpt returns contextSize lines around line, highlighting it with "> ".
func Excerpt(source string, line int, contextSize int) string {
	lines := strings.Split(source, "\n")

	start := line - contextSize - 1
	if start < 0 {
		start = 0
	}
	end := line + contextSize
	if end > len(lines) {
		end = len(lines)
	}

	var result strings.Builder
	for i := start; i < end; i++ {
		prefix := "  "
		if i+1 == line {
			prefix = "> "
		}
		result.WriteString(fmt.Sprintf("%s%4d | %s\n", prefix, i+1, lines[i]))
	}
	return result.String()
}
