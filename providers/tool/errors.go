package tool

import (
	"errors"
	"fmt"
)

// Kind classifies a tool failure. Kinds travel inside [ai.ToolResult.Error]
// so the model sees failures as structured data it can react to.
type Kind string

const (
	// KindInvalidArgument marks malformed or out-of-policy tool input,
	// caught before any I/O.
	KindInvalidArgument Kind = "invalid_argument"
	// KindInvalidURL marks input that fails the URL syntax check.
	KindInvalidURL Kind = "invalid_url"
	// KindTimeout marks a request that exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindConnectionFailed marks a transport-level fetch failure.
	KindConnectionFailed Kind = "connection_failed"
	// KindUnknownTool marks a request for a tool the catalog doesn't hold.
	KindUnknownTool Kind = "unknown_tool"
	// KindExecutionError is the catch-all for unexpected tool faults.
	KindExecutionError Kind = "tool_execution_error"
	// KindLoopExceeded marks the orchestration round ceiling being hit.
	KindLoopExceeded Kind = "tool_loop_exceeded"
)

// Error is a classified tool failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a classified tool error.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err, defaulting to
// [KindExecutionError] for unclassified failures.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindExecutionError
}
