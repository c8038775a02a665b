package services

import "fmt"

// ErrKind classifies job failures so callers can branch on the class of
// failure instead of matching message text.
type ErrKind int

const (
	ErrKindUnexpected ErrKind = iota
	ErrKindInvalidRequest
	ErrKindUnsupported
	ErrKindNoStream
	ErrKindBlocked
	ErrKindTimeout
	ErrKindCanceled
	ErrKindArtifactMissing
	ErrKindFailure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidRequest:
		return "invalid_request"
	case ErrKindUnsupported:
		return "unsupported_url"
	case ErrKindNoStream:
		return "no_stream"
	case ErrKindBlocked:
		return "extraction_blocked"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindCanceled:
		return "cancelled"
	case ErrKindArtifactMissing:
		return "artifact_missing"
	case ErrKindFailure:
		return "extraction_failed"
	default:
		return "unexpected"
	}
}

// JobError carries a failure class plus a human-readable detail message.
type JobError struct {
	Kind   ErrKind
	Detail string
	Err    error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func newJobError(kind ErrKind, detail string, err error) *JobError {
	return &JobError{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the failure class from an error, falling back to
// ErrKindUnexpected for anything that is not a JobError.
func KindOf(err error) ErrKind {
	if jerr, ok := err.(*JobError); ok {
		return jerr.Kind
	}
	return ErrKindUnexpected
}

// DetailOf returns the caller-facing message for an error.
func DetailOf(err error) string {
	if jerr, ok := err.(*JobError); ok {
		return jerr.Detail
	}
	return err.Error()
}
