package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/api/dto"
	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/service"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// ScriptTreeHandler exposes the script library endpoints.
type ScriptTreeHandler struct {
	service *service.ScriptTreeService
}

// NewScriptTreeHandler constructs handler.
func NewScriptTreeHandler(treeService *service.ScriptTreeService) *ScriptTreeHandler {
	return &ScriptTreeHandler{service: treeService}
}

// GetTree handles GET /script-tree.
func (h *ScriptTreeHandler) GetTree(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tree, err := h.service.Tree(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": treeNodeResponse(tree)})
}

// CreateNode handles POST /script-tree with an explicit type field.
func (h *ScriptTreeHandler) CreateNode(c *fiber.Ctx) error {
	var req dto.CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.create(c, req, domain.ScriptNodeType(req.Type))
}

// CreateFolder handles POST /script-tree/folder.
func (h *ScriptTreeHandler) CreateFolder(c *fiber.Ctx) error {
	var req dto.CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.create(c, req, domain.NodeTypeFolder)
}

// CreateFile handles POST /script-tree/file.
func (h *ScriptTreeHandler) CreateFile(c *fiber.Ctx) error {
	var req dto.CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.create(c, req, domain.NodeTypeFile)
}

func (h *ScriptTreeHandler) create(c *fiber.Ctx, req dto.CreateNodeRequest, nodeType domain.ScriptNodeType) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	node, err := h.service.CreateNode(c.Context(), actor, service.NodeCreateInput{
		Name:      req.Name,
		Type:      nodeType,
		ParentID:  req.ParentID,
		RequestID: req.RequestID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": scriptNodeResponse(node)})
}

// UpdateNode handles PUT /script-tree/:id.
func (h *ScriptTreeHandler) UpdateNode(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	node, err := h.service.UpdateNode(c.Context(), actor, id, service.NodeUpdateInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scriptNodeResponse(node)})
}

// DeleteNode handles DELETE /script-tree/:id.
func (h *ScriptTreeHandler) DeleteNode(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteNode(c.Context(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MoveTargets handles GET /script-tree/:id/move-targets.
func (h *ScriptTreeHandler) MoveTargets(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	targets, err := h.service.MoveTargets(c.Context(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.ScriptNodeResponse, 0, len(targets))
	for i := range targets {
		items = append(items, scriptNodeResponse(&targets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Export handles GET /script-tree/export.
func (h *ScriptTreeHandler) Export(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	archive, filename, err := h.service.Export(c.Context(), actor)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(archive)
}

func scriptNodeResponse(node *domain.ScriptNode) dto.ScriptNodeResponse {
	return dto.ScriptNodeResponse{
		ID:        node.ID,
		Name:      node.Name,
		Type:      string(node.Type),
		ParentID:  node.ParentID,
		RequestID: node.RequestID,
		CreatedBy: node.CreatedBy,
		CreatedAt: node.CreatedAt,
		UpdatedAt: node.UpdatedAt,
	}
}

func treeNodeResponse(tree *service.TreeNode) dto.ScriptNodeResponse {
	response := scriptNodeResponse(&tree.Node)
	response.Children = make([]dto.ScriptNodeResponse, 0, len(tree.Children))
	for i := range tree.Children {
		child := treeNodeResponse(&tree.Children[i])
		response.Children = append(response.Children, child)
	}
	return response
}
