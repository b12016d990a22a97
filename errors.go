package goskemaform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/goskemaform/internal/path"
	"github.com/reoring/goskemaform/internal/reactive"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidFormat = "invalid_format"
	CodeNotInteger    = "not_integer"
	CodeParseError    = "parse_error"
	// CodeValidatorFailed marks a validator that could not run to completion.
	CodeValidatorFailed = "validator_failed"
)

var (
	// ErrMalformedPath is returned by Compile for empty paths and paths with
	// empty segments. The rest of the engine never surfaces it.
	ErrMalformedPath = path.ErrMalformedPath
	// ErrDisposed is returned by operations that need a live engine.
	ErrDisposed = errors.New("goskemaform: form disposed")
	// ErrNoValidator is returned by New when the validator is nil.
	ErrNoValidator = errors.New("goskemaform: nil validator")

	// Errors returned by Form.Call.
	ErrUnknownMethod = reactive.ErrUnknownMethod
	ErrBadArgs       = reactive.ErrBadArgs
	ErrNotArray      = reactive.ErrNotArray
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/name).
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"min":1, "got":0}) for
	// message catalogs and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at /name
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ErrorMap maps dotted paths to their messages in report order. The empty
// path "" holds errors about the whole tree.
type ErrorMap map[string][]string

// ErrorMapFromIssues groups issue messages by dotted path, preserving issue
// order within a path. An issue without a message falls back to its code.
func ErrorMapFromIssues(iss Issues) ErrorMap {
	out := ErrorMap{}
	for _, it := range iss {
		msg := it.Message
		if msg == "" {
			msg = it.Code
		}
		p := path.FromPointer(it.Path)
		out[p] = append(out[p], msg)
	}
	return out
}

// First returns the first message for p.
func (m ErrorMap) First(p string) string {
	if l := m[p]; len(l) > 0 {
		return l[0]
	}
	return ""
}

// Paths returns the paths carrying at least one message, sorted.
func (m ErrorMap) Paths() []string {
	out := make([]string, 0, len(m))
	for p, l := range m {
		if len(l) > 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a copy whose lists are not shared with m.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for p, l := range m {
		out[p] = append([]string(nil), l...)
	}
	return out
}
