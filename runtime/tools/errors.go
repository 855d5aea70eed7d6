package tools

import "errors"

// Sentinel errors for tool operations.
var (
	// ErrUnhandledTool marks a call to a name the registry does not know. The
	// dispatcher still answers it with GenericResult.
	ErrUnhandledTool = errors.New("unhandled tool")

	// ErrToolNameRequired is returned when registering a tool without a name.
	ErrToolNameRequired = errors.New("tool name is required")

	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// ValidationError reports arguments that do not match a tool's input schema.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid arguments for " + e.Tool + ": " + e.Detail
}
