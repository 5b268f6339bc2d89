package llm

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// ConfigError reports a client that cannot be built or a tier with no model.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm config error: %s", e.Message)
}

// BlockedError is returned when the prompt or the answer was refused by the
// provider's safety filters. Repeating the call does not help.
type BlockedError struct {
	Model  string
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s blocked the request: %s", e.Model, e.Reason)
	}
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// APIError carries the status code of a failed provider call.
type APIError struct {
	Model string
	Code  codes.Code
	Cause error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s call failed (%s): %v", e.Model, e.Code, e.Cause)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Transient reports whether the status code usually clears on its own.
func (e *APIError) Transient() bool {
	switch e.Code {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return true
	}
	return false
}

// Permanent reports whether err is a model failure that retrying cannot fix.
func Permanent(err error) bool {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return true
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Transient()
	}
	return false
}
