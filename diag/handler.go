package diag

import (
	"errors"
	"fmt"
)

// Mode selects how a Handler reacts to reported errors.
type Mode int

const (
	// ModeBatch records errors and lets the caller continue, so that all
	// problems of a template can be shown at once.
	ModeBatch Mode = iota
	// ModeStrict makes Report return the error; callers abort on it.
	ModeStrict
)

// Handler collects diagnostics of a single compile call. It is not safe for
// concurrent use; each compile owns its own Handler.
type Handler struct {
	mode     Mode
	file     string
	source   string
	errs     []*Error
	warnings []*Error
}

func NewHandler(file, source string, mode Mode) *Handler {
	return &Handler{mode: mode, file: file, source: source}
}

func (h *Handler) File() string { return h.file }
func (h *Handler) Mode() Mode { return h.mode }

// Report records an error. In strict mode the error is also returned and the
// caller must stop; in batch mode the return value is nil.
func (h *Handler) Report(kind Kind, pos Position, format string, args ...any) error {
	e := h.newError(kind, pos, fmt.Sprintf(format, args...))
	h.errs = append(h.errs, e)
	if h.mode == ModeStrict {
		return e
	}
	return nil
}

// Warn records a non-fatal diagnostic.
func (h *Handler) Warn(pos Position, format string, args ...any) {
	h.warnings = append(h.warnings, h.newError(0, pos, fmt.Sprintf(format, args...)))
}

func (h *Handler) newError(kind Kind, pos Position, msg string) *Error {
	e := &Error{Kind: kind, File: h.file, Pos: pos, Message: msg}
	if pos.IsValid() && h.source != "" {
		e.Excerpt = Excerpt(h.source, pos.Line, 2)
	}
	return e
}

func (h *Handler) HasErrors() bool { return len(h.errs) > 0 }
func (h *Handler) Errors() []*Error { return h.errs }
func (h *Handler) Warnings() []*Error { return h.warnings }

// First returns the first recorded error or nil.
func (h *Handler) First() *Error {
	if len(h.errs) == 0 {
		return nil
	}
	return h.errs[0]
}

// Err joins every recorded error, or returns nil when there are none.
func (h *Handler) Err() error {
	if len(h.errs) == 0 {
		return nil
	}
	list := make([]error, len(h.errs))
	for i, e := range h.errs {
		list[i] = e
	}
	return errors.Join(list...)
}
