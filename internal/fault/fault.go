// Package fault defines the error taxonomy shared by the conversion
// pipeline. Every failure that crosses a package boundary is wrapped in an
// *Error carrying a stable Kind so callers can branch without string
// matching and the CLI can map kinds to exit behavior.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is the zero value; never constructed explicitly.
	KindUnknown Kind = iota
	// KindNotFound: the input document does not exist.
	KindNotFound
	// KindUnsupportedType: no handler registered for the document suffix.
	KindUnsupportedType
	// KindCredentialMissing: the synthesis engine has no usable API key.
	KindCredentialMissing
	// KindUpstreamRequest: the synthesis service or network failed.
	KindUpstreamRequest
	// KindExtraction: the document could not be read or parsed.
	KindExtraction
	// KindValidation: invalid input to a pipeline stage.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindCredentialMissing:
		return "credential_missing"
	case KindUpstreamRequest:
		return "upstream_request"
	case KindExtraction:
		return "extraction"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline error. Path and Chunk are optional context
// for the human-readable message.
type Error struct {
	Kind  Kind
	Op    string
	Path  string
	Chunk int
	Err   error
	msg   string
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.msg
	if e.Path != "" {
		s += ": " + e.Path
	}
	if e.Chunk > 0 {
		s = fmt.Sprintf("%s (chunk %d)", s, e.Chunk)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, &Error{Kind: k}) works for
// sentinel comparisons.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// New builds a classified error. cause may be nil.
func New(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, msg: msg, Err: cause}
}

func NotFound(op, path string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Path: path, msg: "input file not found"}
}

func UnsupportedType(op, suffix string) *Error {
	return &Error{Kind: KindUnsupportedType, Op: op, msg: fmt.Sprintf("file type not supported yet: %s", suffix)}
}

func CredentialMissing(op, msg string) *Error {
	return &Error{Kind: KindCredentialMissing, Op: op, msg: msg}
}

func Upstream(op string, chunk int, cause error) *Error {
	return &Error{Kind: KindUpstreamRequest, Op: op, Chunk: chunk, msg: "synthesis request failed", Err: cause}
}

func Extraction(op, path string, cause error) *Error {
	return &Error{Kind: KindExtraction, Op: op, Path: path, msg: "failed to extract text", Err: cause}
}

func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, msg: msg}
}
