package dto

// ScriptNodeResponse is one node of the script library tree. Children is
// populated only on tree reads; flat responses leave it nil.
type ScriptNodeResponse struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	Type      string               `json:"type"`
	ParentID  *int64               `json:"parentId,omitempty"`
	RequestID *int64               `json:"requestId,omitempty"`
	CreatedBy int64                `json:"createdBy"`
	CreatedAt int64                `json:"createdAt"`
	UpdatedAt int64                `json:"updatedAt"`
	Children  []ScriptNodeResponse `json:"children,omitempty"`
}

// CreateNodeRequest payload for POST /script-tree.
type CreateNodeRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ParentID  *int64 `json:"parentId"`
	RequestID *int64 `json:"requestId"`
}

// UpdateNodeRequest payload for PUT /script-tree/:id.
type UpdateNodeRequest struct {
	Name     *string `json:"name"`
	ParentID *int64  `json:"parentId"`
}
