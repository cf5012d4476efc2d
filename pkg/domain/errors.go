package domain

import "errors"

// ErrInvalidDescription is returned when a diagram description fails static validation.
// It must surface at build time, never from a running session.
var ErrInvalidDescription = errors.New("invalid diagram description")

// ErrPermissionDenied is returned when an edit targets a read-only feature or an undeletable element.
var ErrPermissionDenied = errors.New("permission denied")

// ErrIllegalTransition is returned when a view would skip or reverse a lifecycle step.
var ErrIllegalTransition = errors.New("illegal view transition")

// ErrIllegalDrop marks an incompatible drop. Drops are advisory, so it is logged, never returned to callers.
var ErrIllegalDrop = errors.New("illegal drop")

// ErrDanglingReference is returned when a deletion would leave a cross-reference dangling
// and the cleanup policy refuses to unset it.
var ErrDanglingReference = errors.New("dangling reference")

// ErrInconsistentEdgeEndpoints is returned when edge endpoints violate the edge description.
var ErrInconsistentEdgeEndpoints = errors.New("inconsistent edge endpoints")

// ErrInvalidFeature is returned when a feature is unknown for a type or used with the wrong kind.
var ErrInvalidFeature = errors.New("invalid feature")

// ErrInvalidParameters is returned when tool parameters do not match the tool schema.
var ErrInvalidParameters = errors.New("invalid tool parameters")

// ErrElementNotFound is returned when an element id cannot be resolved in the model.
var ErrElementNotFound = errors.New("element not found")

// ErrViewNotFound is returned when a view id cannot be resolved in the diagram.
var ErrViewNotFound = errors.New("view not found")

// ErrToolNotFound is returned when a palette does not declare the requested tool.
var ErrToolNotFound = errors.New("tool not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
