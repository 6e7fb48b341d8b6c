package scheduler

import "fmt"

// UnknownActionTypeError means a selected item has no registered handler.
// It is never fatal.
type UnknownActionTypeError struct {
	Type string
}

func (e *UnknownActionTypeError) Error() string {
	return fmt.Sprintf("scenario item type %q is not available", e.Type)
}

// HandlerExecutionError wraps a failure (error or panic) raised by a handler.
type HandlerExecutionError struct {
	Type string
	Err  error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.Type, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }
