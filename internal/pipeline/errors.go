package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a run-level pipeline failure.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindUnsupportedMediaType
	KindModelUnavailable
	KindMediaOpenFailed
	KindInferenceFailed
	KindRenderWriteFailed
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnsupportedMediaType:
		return "unsupported_media_type"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindMediaOpenFailed:
		return "media_open_failed"
	case KindInferenceFailed:
		return "inference_failed"
	case KindRenderWriteFailed:
		return "render_write_failed"
	case KindStorage:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Error is the single run-level failure type returned by pipeline entry
// points. Per-frame and per-attachment conditions are absorbed and logged
// inside the run and never surface as an Error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error returned by a pipeline
// entry point.
func KindOf(err error) (Kind, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return 0, false
}

// IsUserError reports whether the failure is user-correctable and safe to
// surface verbatim. Everything else is surfaced as a generic failure and
// logged with detail server-side.
func IsUserError(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == KindInvalidInput || kind == KindUnsupportedMediaType)
}
