package flight

import "fmt"

// ValidationError reports malformed input. The operation is rejected and
// state is left unchanged; the caller gets the offending field back.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation referencing an id absent from the
// current state.
type NotFoundError struct {
	Kind string // "flight", "conflict", "advisory"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StateError reports an operation that is valid in shape but not allowed
// in the current lifecycle state (e.g. transitioning a cancelled flight).
type StateError struct {
	ID      string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Message)
}
