package compositor

import (
	"errors"
	"fmt"
)

// Kind classifies a composition failure. Every error surfaced by
// Composite carries exactly one kind; nothing is swallowed and nothing
// is retried inside the pipeline.
type Kind int

const (
	// KindEmptyInput: no photos supplied; nothing was written.
	KindEmptyInput Kind = iota
	// KindInvalidPlan: the timing or geometry options are unusable.
	KindInvalidPlan
	// KindSourceDecode: a source photo could not be read or decoded.
	KindSourceDecode
	// KindBufferAlloc: a frame buffer could not be allocated.
	KindBufferAlloc
	// KindEncoderInit: the encoder rejected its configuration; no
	// frames were written.
	KindEncoderInit
	// KindEncoderWrite: a frame append failed mid-stream.
	KindEncoderWrite
	// KindEncoderFinalize: the container could not be flushed; the
	// output must not be treated as valid.
	KindEncoderFinalize
	// KindCanceled: the run was canceled at a frame boundary.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindInvalidPlan:
		return "invalid_plan"
	case KindSourceDecode:
		return "source_decode"
	case KindBufferAlloc:
		return "buffer_alloc"
	case KindEncoderInit:
		return "encoder_init"
	case KindEncoderWrite:
		return "encoder_write"
	case KindEncoderFinalize:
		return "encoder_finalize"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is a typed composition failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error returned by
// Composite.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
