package rendering

import "fmt"

// RenderError represents a failure producing the page format
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// PackError represents a failure serializing the flow format package
type PackError struct {
	Part  string
	Cause error
}

func (e *PackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pack error: %s: %v", e.Part, e.Cause)
	}
	return fmt.Sprintf("pack error: %s", e.Part)
}

func (e *PackError) Unwrap() error {
	return e.Cause
}
