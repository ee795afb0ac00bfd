package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/api/dto"
	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/service"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// RequestsHandler manages automation request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// List handles GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	requests, err := h.service.List(c.Context(), actor, parseRequestQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	request, err := h.service.Get(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Create handles POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       domain.RequestStatus(req.Status),
		Priority:     domain.RequestPriority(req.Priority),
		ProjectName:  req.ProjectName,
		RevitVersion: req.RevitVersion,
		RequesterID:  req.RequesterID,
		DueDate:      req.DueDate,
		Attachments:  fileInputs(req.Attachments),
	}
	request, err := h.service.Create(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// Update handles PUT /requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		ProjectName:    req.ProjectName,
		RevitVersion:   req.RevitVersion,
		DueDate:        req.DueDate,
		ResultScript:   req.ResultScript,
		ResultFileName: req.ResultFileName,
		AIAnalysis:     req.AIAnalysis,
		DeveloperNotes: req.DeveloperNotes,
	}
	if req.Status != nil {
		status := domain.RequestStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.RequestPriority(*req.Priority)
		input.Priority = &priority
	}

	request, err := h.service.Update(c.Context(), actor, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Delete handles DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SubmitResultFiles handles POST /requests/:id/result-files.
func (h *RequestsHandler) SubmitResultFiles(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.SubmitResultFilesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.AddResultFiles(c.Context(), actor, id, fileInputs(req.Files))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// DeleteResultFile handles DELETE /requests/:id/result-files/:fileId.
func (h *RequestsHandler) DeleteResultFile(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	fileID, err := parseIDParam(c, "fileId")
	if err != nil {
		return err
	}
	request, err := h.service.DeleteResultFile(c.Context(), actor, id, fileID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// ListComments handles GET /requests/:id/comments.
func (h *RequestsHandler) ListComments(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Context(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment handles POST /requests/:id/comments.
func (h *RequestsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), actor, id, strings.TrimSpace(req.Content))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Timeline handles GET /requests/:id/timeline.
func (h *RequestsHandler) Timeline(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.Timeline(c.Context(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.TimelineEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TimelineEntryResponse{
			Type:      entry.Type,
			Label:     entry.Label,
			Timestamp: entry.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats handles GET /requests/stats.
func (h *RequestsHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.Context(), actor)
	if err != nil {
		return err
	}
	byStatus := make(map[string]int, len(stats.CountsByStatus))
	for status, count := range stats.CountsByStatus {
		byStatus[string(status)] = count
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Total:                 stats.Total,
		ByStatus:              byStatus,
		CompletedCount:        stats.CompletedCount,
		AverageTurnaroundDays: stats.AverageTurnaroundDays,
	}})
}

func parseRequestQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.RequestStatus(statusStr)
		filter.Status = &status
	}
	if priorityStr := strings.TrimSpace(c.Query("priority")); priorityStr != "" {
		priority := domain.RequestPriority(priorityStr)
		filter.Priority = &priority
	}
	if project := strings.TrimSpace(c.Query("project")); project != "" {
		filter.Project = &project
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	filter.SortAsc = strings.EqualFold(c.Query("sort"), "asc")
	return filter
}

func fileInputs(payloads []dto.FilePayload) []service.FileInput {
	files := make([]service.FileInput, 0, len(payloads))
	for _, payload := range payloads {
		files = append(files, service.FileInput{
			Name: payload.Name,
			Type: payload.Type,
			Data: payload.Data,
		})
	}
	return files
}

func requestResponse(request *domain.AutomationRequest) dto.RequestResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(request.Attachments))
	for _, attachment := range request.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:   attachment.ID,
			Name: attachment.Name,
			Type: attachment.Type,
			Data: attachment.Data,
		})
	}
	resultFiles := make([]dto.AttachmentResponse, 0, len(request.ResultFiles))
	for _, file := range request.ResultFiles {
		resultFiles = append(resultFiles, dto.AttachmentResponse{
			ID:   file.ID,
			Name: file.Name,
			Type: file.Type,
			Data: file.Data,
		})
	}
	submissionEvents := make([]dto.SubmissionEventResponse, 0, len(request.SubmissionEvents))
	for _, event := range request.SubmissionEvents {
		submissionEvents = append(submissionEvents, dto.SubmissionEventResponse{
			ID:         event.ID,
			Type:       string(event.EventType),
			Timestamp:  event.CreatedAt,
			AddedFiles: event.AddedFiles,
		})
	}
	var comments []dto.CommentResponse
	for i := range request.Comments {
		comments = append(comments, commentResponse(&request.Comments[i]))
	}

	return dto.RequestResponse{
		ID:               request.ID,
		Title:            request.Title,
		Description:      request.Description,
		Status:           string(request.Status),
		Priority:         string(request.Priority),
		ProjectName:      request.ProjectName,
		RevitVersion:     request.RevitVersion,
		RequesterID:      request.RequesterID,
		RequesterName:    request.RequesterName,
		CreatedAt:        request.CreatedAt,
		UpdatedAt:        request.UpdatedAt,
		DueDate:          request.DueDate,
		ResultScript:     request.ResultScript,
		ResultFileName:   request.ResultFileName,
		AIAnalysis:       request.AIAnalysis,
		DeveloperNotes:   request.DeveloperNotes,
		Attachments:      attachments,
		ResultFiles:      resultFiles,
		SubmissionEvents: submissionEvents,
		SubmissionCount:  request.SubmissionCount(),
		Comments:         comments,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		RequestID:  comment.RequestID,
		UserID:     comment.UserID,
		AuthorName: comment.AuthorName,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
	}
}
