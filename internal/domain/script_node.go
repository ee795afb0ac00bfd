package domain

// ScriptNodeType separates folders from file links.
type ScriptNodeType string

const (
	NodeTypeFolder ScriptNodeType = "FOLDER"
	NodeTypeFile   ScriptNodeType = "FILE"
)

// Well-known folder names in the script library.
const (
	RootFolderName     = "Scripts"
	UnsortedFolderName = "Unsorted"
)

// ScriptNode is one node of the script library tree. ParentID is nil only
// for the root folder. RequestID links FILE nodes (and per-request folders)
// back to the request whose result produced them.
type ScriptNode struct {
	ID        int64
	Name      string
	Type      ScriptNodeType
	ParentID  *int64
	RequestID *int64
	CreatedBy int64
	CreatedAt int64
	UpdatedAt int64
}

// IsRoot reports whether this node is the tree root.
func (n *ScriptNode) IsRoot() bool {
	return n.ParentID == nil
}
