package tts

import (
	"errors"
	"fmt"
)

// Kind groups failures for the caller.
type Kind string

const KindProvider Kind = "provider_error"

// Cause narrows a provider failure for logs and metrics only.
type Cause string

const (
	CauseAuthentication Cause = "authentication"
	CauseRateLimited    Cause = "rate_limited"
	CauseInvalidRequest Cause = "invalid_request"
	CauseUpstream       Cause = "upstream"
	CauseTransport      Cause = "transport"
)

const genericMessage = "Failed to generate speech"

// Failure is returned by providers when synthesis did not produce audio.
// Error() only exposes the generic message; Err carries the provider detail
// and must stay server-side.
type Failure struct {
	Kind    Kind
	Cause   Cause
	Message string
	Status  int
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Detail is the provider-side description intended for logs.
func (f *Failure) Detail() string {
	if f.Err == nil {
		return string(f.Cause)
	}
	return fmt.Sprintf("%s: %v", f.Cause, f.Err)
}

// NewFailure builds a provider failure carrying the generic caller message.
func NewFailure(cause Cause, status int, err error) *Failure {
	return &Failure{
		Kind:    KindProvider,
		Cause:   cause,
		Message: genericMessage,
		Status:  status,
		Err:     err,
	}
}

// AsFailure reports whether err is a provider failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
