// Package failure classifies the ways a sticker conversion can go wrong.
package failure

import "errors"

type Kind string

const (
	KindDownload  Kind = "download"
	KindDecode    Kind = "decode"
	KindPersist   Kind = "persist"
	KindTranscode Kind = "transcode"
	KindSend      Kind = "send"
	KindCleanup   Kind = "cleanup"
)

// Error carries the step that failed alongside the cause.
type Error struct {
	Kind Kind
	Err  error
}

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " failure"
	}
	return string(e.Kind) + " failure: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err was classified as kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
