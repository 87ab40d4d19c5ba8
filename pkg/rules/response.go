// pkg/rules/response.go

package rules

import (
	"errors"
	"fmt"
)

// ErrSkip signals that a rule does not apply to the facts at hand
var ErrSkip = errors.New("skip")

// Skip returns an error wrapping ErrSkip with the given reason
func Skip(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// ResponseType is the outcome of a rule
type ResponseType string

const (
	ResponsePass ResponseType = "pass"
	ResponseFail ResponseType = "fail"
	ResponseSkip ResponseType = "skip"
)

// Details are the template substitution values of a response
type Details map[string]any

// Response is the verdict of one rule invocation: a message key plus the
// values its message template is rendered with.
type Response struct {
	Type    ResponseType `json:"type" yaml:"type"`
	Key     string       `json:"key,omitempty" yaml:"key,omitempty"`
	Details Details      `json:"details,omitempty" yaml:"details,omitempty"`
	// Reason explains a skip
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// MakePass creates a passing response
func MakePass(key string, details Details) *Response {
	return &Response{Type: ResponsePass, Key: key, Details: details}
}

// MakeFail creates a failing response
func MakeFail(key string, details Details) *Response {
	return &Response{Type: ResponseFail, Key: key, Details: details}
}

// MakeSkip creates a skipped response
func MakeSkip(reason string) *Response {
	return &Response{Type: ResponseSkip, Reason: reason}
}
