package command

import (
	"errors"
	"fmt"
)

// ErrMalformed marks an envelope that was well-framed but structurally
// invalid for its command tag: missing required keys, mistyped values, or
// unknown extra keys. Malformed envelopes are recoverable at the dispatch
// level; the message is dropped and the connection continues.
var ErrMalformed = errors.New("malformed envelope")

// MalformedError carries the command tag and the specific structural failure.
type MalformedError struct {
	Tag    string // command tag, empty when the envelope itself failed to parse
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Tag == "" {
		return "malformed envelope: " + e.Reason
	}
	return fmt.Sprintf("malformed %q envelope: %s", e.Tag, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformed) hold for every MalformedError.
func (e *MalformedError) Unwrap() error { return ErrMalformed }

func malformedf(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

func malformedTagf(tag, format string, args ...any) error {
	return &MalformedError{Tag: tag, Reason: fmt.Sprintf(format, args...)}
}
