package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// TreeNode is a script library node with its children resolved. Children
// are ordered folders-first, then case-insensitively by name.
type TreeNode struct {
	Node     domain.ScriptNode
	Children []TreeNode
}

// NodeCreateInput describes a folder or file link to add to the tree.
type NodeCreateInput struct {
	Name      string
	Type      domain.ScriptNodeType
	ParentID  *int64
	RequestID *int64
}

// NodeUpdateInput renames and/or moves a node; nil fields are untouched.
type NodeUpdateInput struct {
	Name     *string
	ParentID *int64
}

// ScriptTreeDependencies bundles collaborators for the tree service.
type ScriptTreeDependencies struct {
	Nodes       repository.ScriptNodeRepository
	Requests    repository.RequestRepository
	ResultFiles repository.ResultFileRepository
	Logger      *zap.Logger
}

// ScriptTreeService maintains the hierarchical script library. Reads go
// through a sync step that folds completed requests into the tree, so the
// library is always consistent with fulfillment state without a separate
// publish action.
type ScriptTreeService struct {
	nodes       repository.ScriptNodeRepository
	requests    repository.RequestRepository
	resultFiles repository.ResultFileRepository
	logger      *zap.Logger
	clock       func() int64
}

// NewScriptTreeService wires the service.
func NewScriptTreeService(deps ScriptTreeDependencies) *ScriptTreeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptTreeService{
		nodes:       deps.Nodes,
		requests:    deps.Requests,
		resultFiles: deps.ResultFiles,
		logger:      logger,
		clock:       nowMillis,
	}
}

// Tree returns the full library as a nested structure rooted at "Scripts".
func (s *ScriptTreeService) Tree(ctx context.Context, actor *domain.User) (*TreeNode, error) {
	root, err := s.ensureBaseline(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.syncCompletedRequests(ctx, actor, root); err != nil {
		return nil, err
	}

	all, err := s.nodes.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tree := BuildTree(all, root.ID)
	return &TreeNode{Node: *root, Children: tree}, nil
}

// BuildTree assembles child subtrees for the given parent out of a flat
// node list, folders before files, names compared case-insensitively.
func BuildTree(nodes []domain.ScriptNode, parentID int64) []TreeNode {
	byParent := make(map[int64][]domain.ScriptNode)
	for _, node := range nodes {
		if node.ParentID != nil {
			byParent[*node.ParentID] = append(byParent[*node.ParentID], node)
		}
	}

	var build func(id int64) []TreeNode
	build = func(id int64) []TreeNode {
		children := byParent[id]
		sort.SliceStable(children, func(i, j int) bool {
			if children[i].Type != children[j].Type {
				return children[i].Type == domain.NodeTypeFolder
			}
			return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
		})
		result := make([]TreeNode, 0, len(children))
		for _, child := range children {
			result = append(result, TreeNode{Node: child, Children: build(child.ID)})
		}
		return result
	}
	return build(parentID)
}

// CreateNode adds a folder or file link under an existing folder. File
// nodes must reference a request and a request may be linked at most once
// per folder; an empty file name falls back to the request's result file
// name, then its title.
func (s *ScriptTreeService) CreateNode(ctx context.Context, actor *domain.User, input NodeCreateInput) (*domain.ScriptNode, error) {
	name := strings.TrimSpace(input.Name)
	if input.Type != domain.NodeTypeFolder && input.Type != domain.NodeTypeFile {
		return nil, apperrors.NewValidationError("Invalid node type", map[string]any{"type": string(input.Type)})
	}
	if input.Type == domain.NodeTypeFolder && name == "" {
		return nil, apperrors.NewValidationError("Node name is required", nil)
	}

	root, err := s.ensureBaseline(ctx, actor)
	if err != nil {
		return nil, err
	}
	parentID := root.ID
	if input.ParentID != nil {
		parent, err := s.folderByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = parent.ID
	}

	var requestID *int64
	if input.Type == domain.NodeTypeFile {
		if input.RequestID == nil {
			return nil, apperrors.NewValidationError("requestId is required for file nodes", nil)
		}
		request, err := s.requests.GetByID(ctx, *input.RequestID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if _, err := s.nodes.FindFileInFolder(ctx, parentID, request.ID); err == nil {
			return nil, apperrors.NewValidationError("Request is already linked in this folder", nil)
		}
		if name == "" {
			if request.ResultFileName != nil && strings.TrimSpace(*request.ResultFileName) != "" {
				name = strings.TrimSpace(*request.ResultFileName)
			} else {
				name = request.Title
			}
		}
		id := request.ID
		requestID = &id
	}

	now := s.clock()
	node := &domain.ScriptNode{
		Name:      name,
		Type:      input.Type,
		ParentID:  &parentID,
		RequestID: requestID,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, apperrors.MapError(err)
	}
	return node, nil
}

// UpdateNode renames and/or moves a node. The root is immutable, and a
// folder can never be moved into itself or any of its descendants.
func (s *ScriptTreeService) UpdateNode(ctx context.Context, actor *domain.User, nodeID int64, input NodeUpdateInput) (*domain.ScriptNode, error) {
	node, err := s.nodeByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, apperrors.NewValidationError("Root folder cannot be modified", nil)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Node name is required", nil)
		}
		node.Name = name
	}

	if input.ParentID != nil {
		target, err := s.folderByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if target.ID == node.ID {
			return nil, apperrors.NewValidationError("Cannot move a folder into itself", nil)
		}
		all, err := s.nodes.ListAll(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if _, isDescendant := DescendantIDs(all, node.ID)[target.ID]; isDescendant {
			return nil, apperrors.NewValidationError("Cannot move a folder into its own subtree", nil)
		}
		targetID := target.ID
		node.ParentID = &targetID
	}

	node.UpdatedAt = s.clock()
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, apperrors.MapError(err)
	}
	return node, nil
}

// MoveTargets lists the folders a node may legally be moved into: every
// folder except the node itself and its descendants.
func (s *ScriptTreeService) MoveTargets(ctx context.Context, actor *domain.User, nodeID int64) ([]domain.ScriptNode, error) {
	node, err := s.nodeByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	all, err := s.nodes.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	excluded := DescendantIDs(all, node.ID)
	excluded[node.ID] = struct{}{}

	targets := make([]domain.ScriptNode, 0)
	for _, candidate := range all {
		if candidate.Type != domain.NodeTypeFolder {
			continue
		}
		if _, skip := excluded[candidate.ID]; skip {
			continue
		}
		targets = append(targets, candidate)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return strings.ToLower(targets[i].Name) < strings.ToLower(targets[j].Name)
	})
	return targets, nil
}

// DescendantIDs returns the ids of every node below the given one.
func DescendantIDs(nodes []domain.ScriptNode, id int64) map[int64]struct{} {
	byParent := make(map[int64][]int64)
	for _, node := range nodes {
		if node.ParentID != nil {
			byParent[*node.ParentID] = append(byParent[*node.ParentID], node.ID)
		}
	}
	result := make(map[int64]struct{})
	stack := []int64{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range byParent[current] {
			if _, seen := result[child]; seen {
				continue
			}
			result[child] = struct{}{}
			stack = append(stack, child)
		}
	}
	return result
}

// DeleteNode removes a node and, for folders, the whole subtree.
func (s *ScriptTreeService) DeleteNode(ctx context.Context, actor *domain.User, nodeID int64) error {
	node, err := s.nodeByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return apperrors.NewValidationError("Root folder cannot be deleted", nil)
	}
	// Children fall with the parent via the FK cascade.
	if err := s.nodes.Delete(ctx, nodeID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Export renders the library as a zip archive. Folder paths mirror the
// tree; empty folders get directory entries so the structure survives.
func (s *ScriptTreeService) Export(ctx context.Context, actor *domain.User) ([]byte, string, error) {
	root, err := s.ensureBaseline(ctx, actor)
	if err != nil {
		return nil, "", err
	}
	if err := s.syncCompletedRequests(ctx, actor, root); err != nil {
		return nil, "", err
	}
	all, err := s.nodes.ListAll(ctx)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}

	requestIDs := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, node := range all {
		if node.Type == domain.NodeTypeFile && node.RequestID != nil {
			if _, dup := seen[*node.RequestID]; !dup {
				seen[*node.RequestID] = struct{}{}
				requestIDs = append(requestIDs, *node.RequestID)
			}
		}
	}
	filesByRequest, err := s.resultFiles.MapByRequestIDs(ctx, requestIDs)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	var walk func(children []TreeNode, prefix string) error
	walk = func(children []TreeNode, prefix string) error {
		for _, child := range children {
			if child.Node.Type == domain.NodeTypeFolder {
				path := prefix + child.Node.Name + "/"
				if len(child.Children) == 0 {
					if _, err := writer.Create(path); err != nil {
						return err
					}
					continue
				}
				if err := walk(child.Children, path); err != nil {
					return err
				}
				continue
			}

			content := s.fileContent(child.Node, filesByRequest)
			entry, err := writer.Create(prefix + child.Node.Name)
			if err != nil {
				return err
			}
			if _, err := entry.Write(content); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(BuildTree(all, root.ID), ""); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return buf.Bytes(), "script-library.zip", nil
}

func (s *ScriptTreeService) fileContent(node domain.ScriptNode, filesByRequest map[int64][]domain.ResultFile) []byte {
	if node.RequestID == nil {
		return nil
	}
	for _, file := range filesByRequest[*node.RequestID] {
		if file.Name == node.Name {
			return DecodeFileData(file.Data)
		}
	}
	if files := filesByRequest[*node.RequestID]; len(files) > 0 {
		return DecodeFileData(files[0].Data)
	}
	return nil
}

// DecodeFileData turns a stored payload into raw bytes. Data URIs have
// their base64 body decoded; anything that does not parse is returned
// verbatim so a plain-text script is still usable.
func DecodeFileData(data string) []byte {
	payload := data
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if decoded, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return decoded
	}
	return []byte(data)
}

// ensureBaseline guarantees the root "Scripts" folder and its "Unsorted"
// child exist, creating them idempotently on first touch.
func (s *ScriptTreeService) ensureBaseline(ctx context.Context, actor *domain.User) (*domain.ScriptNode, error) {
	root, err := s.nodes.GetRoot(ctx)
	if err != nil {
		if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
			return nil, apperrors.MapError(err)
		}
		now := s.clock()
		root = &domain.ScriptNode{
			Name:      domain.RootFolderName,
			Type:      domain.NodeTypeFolder,
			CreatedBy: actor.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.nodes.Create(ctx, root); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.logger.Info("script library root created", zap.Int64("node_id", root.ID))
	}

	if _, err := s.nodes.FindChildFolderByName(ctx, root.ID, domain.UnsortedFolderName); err != nil {
		if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
			return nil, apperrors.MapError(err)
		}
		now := s.clock()
		rootID := root.ID
		unsorted := &domain.ScriptNode{
			Name:      domain.UnsortedFolderName,
			Type:      domain.NodeTypeFolder,
			ParentID:  &rootID,
			CreatedBy: actor.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.nodes.Create(ctx, unsorted); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return root, nil
}

// syncCompletedRequests folds every COMPLETED request into the library:
// a folder per request (under Unsorted when newly created, staying where
// a user later moved it) and a FILE node per result file. Running it
// twice adds nothing.
func (s *ScriptTreeService) syncCompletedRequests(ctx context.Context, actor *domain.User, root *domain.ScriptNode) error {
	unsorted, err := s.nodes.FindChildFolderByName(ctx, root.ID, domain.UnsortedFolderName)
	if err != nil {
		return apperrors.MapError(err)
	}

	completed, err := s.requests.ListByStatus(ctx, domain.RequestStatusCompleted)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(completed) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(completed))
	for _, request := range completed {
		ids = append(ids, request.ID)
	}
	filesByRequest, err := s.resultFiles.MapByRequestIDs(ctx, ids)
	if err != nil {
		return apperrors.MapError(err)
	}

	for _, request := range completed {
		files := filesByRequest[request.ID]
		if len(files) == 0 {
			continue
		}

		folder, err := s.nodes.FindFolderByRequest(ctx, request.ID)
		if err != nil {
			if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
				return apperrors.MapError(err)
			}
			now := s.clock()
			unsortedID := unsorted.ID
			requestID := request.ID
			folder = &domain.ScriptNode{
				Name:      request.Title,
				Type:      domain.NodeTypeFolder,
				ParentID:  &unsortedID,
				RequestID: &requestID,
				CreatedBy: actor.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.nodes.Create(ctx, folder); err != nil {
				return apperrors.MapError(err)
			}
		}

		children, err := s.nodes.ListChildren(ctx, folder.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		existing := make(map[string]struct{}, len(children))
		for _, child := range children {
			if child.Type == domain.NodeTypeFile {
				existing[child.Name] = struct{}{}
			}
		}

		for _, file := range files {
			if _, present := existing[file.Name]; present {
				continue
			}
			now := s.clock()
			folderID := folder.ID
			requestID := request.ID
			node := &domain.ScriptNode{
				Name:      file.Name,
				Type:      domain.NodeTypeFile,
				ParentID:  &folderID,
				RequestID: &requestID,
				CreatedBy: actor.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.nodes.Create(ctx, node); err != nil {
				return apperrors.MapError(err)
			}
		}
	}
	return nil
}

func (s *ScriptTreeService) nodeByID(ctx context.Context, id int64) (*domain.ScriptNode, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
			return nil, apperrors.NewNotFound("Node", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return node, nil
}

func (s *ScriptTreeService) folderByID(ctx context.Context, id int64) (*domain.ScriptNode, error) {
	node, err := s.nodeByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("Folder", map[string]any{"id": id})
	}
	if node.Type != domain.NodeTypeFolder {
		return nil, apperrors.NewValidationError("Target is not a folder", map[string]any{"id": id})
	}
	return node, nil
}
