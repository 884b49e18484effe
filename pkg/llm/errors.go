package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures. Stage records carry the kind
// verbatim in their error strings.
type ErrorKind string

const (
	// KindTransport covers connectivity failures, timeouts, HTTP errors,
	// cancellation, missing credentials, and open circuit breakers.
	KindTransport ErrorKind = "LLM_TRANSPORT"

	// KindParse covers output that is not valid JSON or does not satisfy
	// the requested schema.
	KindParse ErrorKind = "LLM_PARSE"

	// KindRefused covers explicit model refusals and empty outputs.
	KindRefused ErrorKind = "LLM_REFUSED"
)

// Error is the gateway error type. Err holds the underlying cause when
// one exists.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
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

// KindOf classifies any error. Errors that are not *Error count as
// transport failures.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindTransport
}

func transportErr(provider, message string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Message: message, Err: err}
}

func parseErr(provider, message string, err error) *Error {
	return &Error{Kind: KindParse, Provider: provider, Message: message, Err: err}
}

func refusedErr(provider, message string) *Error {
	return &Error{Kind: KindRefused, Provider: provider, Message: message}
}
