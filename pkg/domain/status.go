package domain

import "errors"

// ChangeKind classifies what an operation changed, for selective propagation downstream.
type ChangeKind string

const (
	ChangeSemantic  ChangeKind = "semantic"  // The model changed (and the diagram with it)
	ChangeGraphical ChangeKind = "graphical" // Only the diagram changed
	ChangeNone      ChangeKind = "none"      // Nothing changed
)

// Parameter keys reported by successful operations.
const (
	ParamElementID = "element_id"
	ParamViewID    = "view_id"
	ParamDeleted   = "deleted"
	ParamUnset     = "unset"
	ParamLabel     = "label"
)

// Status is the terminal outcome of an edit or drop operation.
// It is either a Success carrying a ChangeKind, or a Failure carrying a Reason.
type Status struct {
	Success    bool           `json:"success"`
	Change     ChangeKind     `json:"change"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Reason     error          `json:"-"`
	// Diff lists the views a successful change touched, taken under the session lock.
	Diff *DiagramDiff `json:"diff,omitempty"`
}

// Success builds a successful status.
func Success(change ChangeKind, params map[string]any) Status {
	if params == nil {
		params = map[string]any{}
	}
	return Status{Success: true, Change: change, Parameters: params}
}

// Failure builds a failed status. The model is untouched when a Failure is returned.
func Failure(err error) Status {
	return Status{
		Change:  ChangeNone,
		Code:    Code(err),
		Message: err.Error(),
		Reason:  err,
	}
}

// Is reports whether the failure reason matches target.
func (s Status) Is(target error) bool {
	return s.Reason != nil && errors.Is(s.Reason, target)
}

var codes = []struct {
	err  error
	code string
}{
	{ErrPermissionDenied, "permission_denied"},
	{ErrInconsistentEdgeEndpoints, "inconsistent_edge_endpoints"},
	{ErrDanglingReference, "dangling_reference"},
	{ErrInvalidDescription, "invalid_description"},
	{ErrIllegalDrop, "illegal_drop"},
	{ErrInvalidFeature, "invalid_feature"},
	{ErrInvalidParameters, "invalid_parameters"},
	{ErrElementNotFound, "element_not_found"},
	{ErrViewNotFound, "view_not_found"},
	{ErrToolNotFound, "tool_not_found"},
	{ErrSessionNotFound, "session_not_found"},
}

// Code maps an error to a stable machine-readable code.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
