package diag

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorMessage verifies the file and position prefix of a message.
func TestErrorMessage(t *testing.T) {
	testCases := []struct {
		err      *Error
		expected string
	}{
		{&Error{File: "a.wml", Pos: Position{Line: 3, Column: 7}, Message: "boom"}, "a.wml:3:7: boom"},
		{&Error{File: "a.wml", Message: "boom"}, "a.wml: boom"},
		{&Error{Message: "boom"}, "boom"},
	}
	for _, tc := range testCases {
		if got := tc.err.Error(); got != tc.expected {
			t.Errorf("Expected %q, got %q", tc.expected, got)
		}
	}
}

// TestKindMatching verifies errors.Is matches on kind alone and KindOf
// finds wrapped errors.
func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("compile: %w", &Error{Kind: KindName, Message: "bad name"})

	if !errors.Is(err, &Error{Kind: KindName}) {
		t.Errorf("Expected errors.Is to match KindName")
	}
	if errors.Is(err, &Error{Kind: KindParse}) {
		t.Errorf("Expected errors.Is not to match KindParse")
	}
	if got := KindOf(err); got != KindName {
		t.Errorf("Expected %v, got %v", KindName, got)
	}
	if got := KindOf(errors.New("plain")); got != 0 {
		t.Errorf("Expected no kind, got %v", got)
	}
}

// TestHandlerModes verifies batch handlers keep going and strict ones
// return the reported error.
func TestHandlerModes(t *testing.T) {
	src := "<div>\n  <span>\n</div>"

	batch := NewHandler("a.wml", src, ModeBatch)
	if err := batch.Report(KindParse, Position{Line: 2, Column: 3}, "tag <%s> is not closed", "span"); err != nil {
		t.Fatalf("Expected nil from a batch handler, got %v", err)
	}
	batch.Report(KindDirective, Position{}, "second")
	batch.Warn(Position{Line: 1, Column: 1}, "just a warning")
	if len(batch.Errors()) != 2 || len(batch.Warnings()) != 1 {
		t.Fatalf("Expected 2 errors and 1 warning, got %d and %d", len(batch.Errors()), len(batch.Warnings()))
	}
	if got := batch.First().Error(); got != "a.wml:2:3: tag <span> is not closed" {
		t.Errorf("Unexpected first error %q", got)
	}
	if batch.Errors()[1].Excerpt != "" {
		t.Errorf("Expected no excerpt without a position")
	}
	if !errors.Is(batch.Err(), &Error{Kind: KindDirective}) {
		t.Errorf("Expected the joined error to contain the directive error")
	}

	strict := NewHandler("a.wml", src, ModeStrict)
	err := strict.Report(KindParse, Position{Line: 1, Column: 1}, "stop")
	if err == nil || KindOf(err) != KindParse {
		t.Fatalf("Expected the parse error back from a strict handler, got %v", err)
	}
	if NewHandler("b.wml", "", ModeBatch).Err() != nil {
		t.Errorf("Expected nil Err without errors")
	}
}

// TestExcerpt verifies the offending line is marked and context is
// clipped at the edges of the source.
func TestExcerpt(t *testing.T) {
	src := "one\ntwo\nthree\nfour"
	expected := "     1 | one\n>    2 | two\n     3 | three\n"
	if got := Excerpt(src, 2, 1); got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}

	pos := PositionAt(src, 5)
	if pos.Line != 2 || pos.Column != 2 {
		t.Errorf("Expected 2:2, got %s", pos)
	}
	if got := SourceLine(src, 4); got != "four" {
		t.Errorf("Expected %q, got %q", "four", got)
	}
}
