package domain

// EdgeEnd names one extremity of an edge.
type EdgeEnd string

const (
	EndSource EdgeEnd = "source"
	EndTarget EdgeEnd = "target"
)

// CreateNodeRequest invokes a node creation tool on a container view.
// An empty ParentViewID targets the diagram background.
type CreateNodeRequest struct {
	ParentViewID string `json:"parent_view_id,omitempty"`
	Tool         string `json:"tool"`
}

// CreateEdgeRequest invokes an edge creation tool between two node views.
type CreateEdgeRequest struct {
	SourceViewID string `json:"source_view_id"`
	TargetViewID string `json:"target_view_id"`
	Tool         string `json:"tool"`
}

// DeleteRequest invokes the delete tool of a node or edge view.
type DeleteRequest struct {
	ViewID string `json:"view_id"`
}

// ReconnectRequest moves one end of an edge view onto another node view.
type ReconnectRequest struct {
	EdgeViewID   string  `json:"edge_view_id"`
	End          EdgeEnd `json:"end"`
	NewEndViewID string  `json:"new_end_view_id"`
}

// DirectEditRequest invokes the direct-edit tool of a view with a new label.
// Params carries the extra parameters declared by the tool schema.
type DirectEditRequest struct {
	ViewID string         `json:"view_id"`
	Label  any            `json:"label"`
	Params map[string]any `json:"params,omitempty"`
}

// DropRequest drops a domain element onto a node view.
// An empty TargetViewID targets the diagram background.
type DropRequest struct {
	SourceID     string `json:"source_id"`
	TargetViewID string `json:"target_view_id,omitempty"`
}
