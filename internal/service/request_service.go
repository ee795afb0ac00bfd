package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/events"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

const maxCommentLength = 2000

// FileInput is an uploaded file payload. Data is a base64 data URI or raw
// text, stored verbatim.
type FileInput struct {
	Name string
	Type string
	Data string
}

// RequestCreateInput carries the fields accepted on request creation.
type RequestCreateInput struct {
	Title        string
	Description  string
	Status       domain.RequestStatus
	Priority     domain.RequestPriority
	ProjectName  string
	RevitVersion string
	RequesterID  *int64
	DueDate      *string
	Attachments  []FileInput
}

// RequestUpdateInput carries partial updates; nil fields are untouched.
type RequestUpdateInput struct {
	Title          *string
	Description    *string
	Status         *domain.RequestStatus
	Priority       *domain.RequestPriority
	ProjectName    *string
	RevitVersion   *string
	DueDate        *string
	ResultScript   *string
	ResultFileName *string
	AIAnalysis     *string
	DeveloperNotes *string
}

// RequestListFilter is the service-level list filter. Employee callers are
// always scoped to their own requests regardless of filter contents.
type RequestListFilter struct {
	Status   *domain.RequestStatus
	Priority *domain.RequestPriority
	Project  *string
	Search   *string
	SortAsc  bool
}

// TimelineEntry is a single row in a request's chronological history.
type TimelineEntry struct {
	Type      string
	Label     string
	Timestamp int64
}

// RequestStats aggregates workload numbers for the dashboard.
type RequestStats struct {
	Total                 int
	CountsByStatus        map[domain.RequestStatus]int
	CompletedCount        int
	AverageTurnaroundDays float64
}

// RequestDependencies bundles everything the request service needs.
type RequestDependencies struct {
	Requests    repository.RequestRepository
	Attachments repository.AttachmentRepository
	ResultFiles repository.ResultFileRepository
	Submissions repository.SubmissionEventRepository
	Comments    repository.CommentRepository
	ScriptNodes repository.ScriptNodeRepository
	Users       repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// RequestService implements the automation request lifecycle.
type RequestService struct {
	requests    repository.RequestRepository
	attachments repository.AttachmentRepository
	resultFiles repository.ResultFileRepository
	submissions repository.SubmissionEventRepository
	comments    repository.CommentRepository
	scriptNodes repository.ScriptNodeRepository
	users       repository.UserRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	clock       func() int64
}

// NewRequestService wires the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:    deps.Requests,
		attachments: deps.Attachments,
		resultFiles: deps.ResultFiles,
		submissions: deps.Submissions,
		comments:    deps.Comments,
		scriptNodes: deps.ScriptNodes,
		users:       deps.Users,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		clock:       nowMillis,
	}
}

func (s *RequestService) canAccess(actor *domain.User, request *domain.AutomationRequest) bool {
	return actor.Role == domain.RoleDeveloper || request.RequesterID == actor.ID
}

// List returns requests visible to the actor, newest first unless the filter
// flips the order. Attachments, result files and submission events are
// attached; comments are loaded only on single-request reads.
func (s *RequestService) List(ctx context.Context, actor *domain.User, filter RequestListFilter) ([]domain.AutomationRequest, error) {
	repoFilter := repository.RequestFilter{
		Status:   filter.Status,
		Priority: filter.Priority,
		Project:  filter.Project,
		Search:   filter.Search,
		SortAsc:  filter.SortAsc,
	}
	if actor.Role != domain.RoleDeveloper {
		requesterID := actor.ID
		repoFilter.RequesterID = &requesterID
	}

	requests, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.hydrate(ctx, requests); err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// Get fetches a single request with its full detail, including comments.
func (s *RequestService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.AutomationRequest, error) {
	request, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, request) {
		return nil, apperrors.NewForbidden("Not authorized to view this request")
	}

	batch := []domain.AutomationRequest{*request}
	if err := s.hydrate(ctx, batch); err != nil {
		return nil, apperrors.MapError(err)
	}
	hydrated := batch[0]

	comments, err := s.comments.ListByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	hydrated.Comments = comments
	return &hydrated, nil
}

// Create registers a new request. Employees always create on their own
// behalf in PENDING; developers may create for another user and pick the
// initial status.
func (s *RequestService) Create(ctx context.Context, actor *domain.User, input RequestCreateInput) (*domain.AutomationRequest, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("Title is required", nil)
	}
	if input.Priority == "" {
		return nil, apperrors.NewValidationError("Priority is required", nil)
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("Invalid priority", map[string]any{"priority": string(input.Priority)})
	}

	requesterID := actor.ID
	requesterName := actor.Name
	status := domain.RequestStatusPending

	if actor.Role == domain.RoleDeveloper {
		if input.RequesterID != nil && *input.RequesterID != actor.ID {
			requester, err := s.users.GetByID(ctx, *input.RequesterID)
			if err != nil {
				return nil, apperrors.NewNotFound("Requester", map[string]any{"id": *input.RequesterID})
			}
			requesterID = requester.ID
			requesterName = requester.Name
		}
		if input.Status != "" {
			if !domain.ValidStatus(input.Status) {
				return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": string(input.Status)})
			}
			status = input.Status
		}
	} else if input.RequesterID != nil && *input.RequesterID != actor.ID {
		s.logger.Warn("ignoring requester override from non-developer",
			zap.Int64("actor_id", actor.ID),
			zap.Int64("claimed_requester_id", *input.RequesterID))
	}

	now := s.clock()
	request := &domain.AutomationRequest{
		Title:         input.Title,
		Description:   input.Description,
		Status:        status,
		Priority:      input.Priority,
		ProjectName:   input.ProjectName,
		RevitVersion:  input.RevitVersion,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		CreatedAt:     now,
		UpdatedAt:     now,
		DueDate:       input.DueDate,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, file := range input.Attachments {
		attachment := &domain.Attachment{
			RequestID: request.ID,
			Name:      file.Name,
			Type:      file.Type,
			Data:      file.Data,
		}
		if err := s.attachments.Create(ctx, attachment); err != nil {
			return nil, apperrors.MapError(err)
		}
		request.Attachments = append(request.Attachments, *attachment)
	}

	s.publish(ctx, events.EventRequestCreated, request.ID, actor, events.RequestCreatedPayload{
		Title:       request.Title,
		Priority:    request.Priority,
		ProjectName: request.ProjectName,
		RequesterID: request.RequesterID,
	})
	return request, nil
}

// Update applies a partial update. Non-developers may not touch the
// fulfillment fields, with one exception: the requester of a COMPLETED
// request may move it to RETURNED to ask for changes.
func (s *RequestService) Update(ctx context.Context, actor *domain.User, id int64, input RequestUpdateInput) (*domain.AutomationRequest, error) {
	request, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, request) {
		return nil, apperrors.NewForbidden("Not authorized to modify this request")
	}

	isDeveloper := actor.Role == domain.RoleDeveloper
	if !isDeveloper {
		if input.ResultScript != nil || input.ResultFileName != nil ||
			input.AIAnalysis != nil || input.DeveloperNotes != nil {
			return nil, apperrors.NewForbidden("Only developers can modify fulfillment fields")
		}
		if input.Status != nil && *input.Status != request.Status &&
			!(request.Status == domain.RequestStatusCompleted && *input.Status == domain.RequestStatusReturned) {
			return nil, apperrors.NewForbidden("Only developers can change the request status")
		}
	}

	oldStatus := request.Status
	if input.Status != nil && *input.Status != request.Status {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": string(*input.Status)})
		}
		if !domain.IsValidTransition(request.Status, *input.Status) {
			return nil, apperrors.NewValidationError("Invalid status transition", map[string]any{
				"from": string(request.Status),
				"to":   string(*input.Status),
			})
		}
		request.Status = *input.Status
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.NewValidationError("Title is required", nil)
		}
		request.Title = *input.Title
	}
	if input.Description != nil {
		request.Description = *input.Description
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("Invalid priority", map[string]any{"priority": string(*input.Priority)})
		}
		request.Priority = *input.Priority
	}
	if input.ProjectName != nil {
		request.ProjectName = *input.ProjectName
	}
	if input.RevitVersion != nil {
		request.RevitVersion = *input.RevitVersion
	}
	if input.DueDate != nil {
		request.DueDate = input.DueDate
	}
	if input.ResultScript != nil {
		request.ResultScript = input.ResultScript
	}
	if input.ResultFileName != nil {
		request.ResultFileName = input.ResultFileName
	}
	if input.AIAnalysis != nil {
		request.AIAnalysis = input.AIAnalysis
	}
	if input.DeveloperNotes != nil {
		request.DeveloperNotes = input.DeveloperNotes
	}

	request.UpdatedAt = s.touch(request.CreatedAt)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	if request.Status != oldStatus {
		s.publish(ctx, events.EventRequestStatusChanged, request.ID, actor, events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: request.Status,
		})
	}

	batch := []domain.AutomationRequest{*request}
	if err := s.hydrate(ctx, batch); err != nil {
		return nil, apperrors.MapError(err)
	}
	result := batch[0]
	return &result, nil
}

// Delete removes a request and everything hanging off it, including its
// script library folder.
func (s *RequestService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	request, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !s.canAccess(actor, request) {
		return apperrors.NewForbidden("Not authorized to delete this request")
	}

	if err := s.deleteScriptNodes(ctx, id); err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *RequestService) deleteScriptNodes(ctx context.Context, requestID int64) error {
	nodes, err := s.scriptNodes.ListByRequest(ctx, requestID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, node := range nodes {
		// Subtree rows go with the parent via FK cascade; a node already
		// removed that way is not an error.
		if err := s.scriptNodes.Delete(ctx, node.ID); err != nil && apperrors.ToDomainError(err).Code != "NOT_FOUND" {
			return apperrors.MapError(err)
		}
	}
	return nil
}

// AddResultFiles stores a batch of fulfillment files, records exactly one
// submission event for the batch and forces the request to COMPLETED. The
// first batch is a SUBMISSION, every later one a RESUBMISSION.
func (s *RequestService) AddResultFiles(ctx context.Context, actor *domain.User, id int64, files []FileInput) (*domain.AutomationRequest, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("At least one file is required", nil)
	}
	request, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		resultFile := &domain.ResultFile{
			RequestID: id,
			Name:      file.Name,
			Type:      file.Type,
			Data:      file.Data,
		}
		if err := s.resultFiles.Create(ctx, resultFile); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	priorEvents, err := s.submissions.CountByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	eventType := domain.EventTypeResubmission
	if priorEvents == 0 {
		eventType = domain.EventTypeSubmission
	}
	event := &domain.SubmissionEvent{
		RequestID:  id,
		EventType:  eventType,
		CreatedAt:  s.clock(),
		AddedFiles: len(files),
	}
	if err := s.submissions.Create(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := request.Status
	request.Status = domain.RequestStatusCompleted
	request.UpdatedAt = s.touch(request.CreatedAt)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventResultFilesSubmitted, id, actor, events.ResultFilesSubmittedPayload{
		EventType:  eventType,
		AddedFiles: len(files),
	})
	if oldStatus != domain.RequestStatusCompleted {
		s.publish(ctx, events.EventRequestStatusChanged, id, actor, events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.RequestStatusCompleted,
		})
	}

	return s.Get(ctx, actor, id)
}

// DeleteResultFile removes one fulfillment file by id. The submission audit
// trail is append-only and stays intact.
func (s *RequestService) DeleteResultFile(ctx context.Context, actor *domain.User, requestID, fileID int64) (*domain.AutomationRequest, error) {
	request, err := s.fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}

	files, err := s.resultFiles.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	found := false
	for _, file := range files {
		if file.ID == fileID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NewNotFound("Result file", map[string]any{"id": fileID})
	}

	if err := s.resultFiles.Delete(ctx, fileID); err != nil {
		return nil, apperrors.MapError(err)
	}
	request.UpdatedAt = s.touch(request.CreatedAt)
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, actor, requestID)
}

// ListComments returns the discussion thread in chronological order.
func (s *RequestService) ListComments(ctx context.Context, actor *domain.User, requestID int64) ([]domain.Comment, error) {
	request, err := s.fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, request) {
		return nil, apperrors.NewForbidden("Not authorized to view this request")
	}
	comments, err := s.comments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AddComment posts a comment authored by the actor.
func (s *RequestService) AddComment(ctx context.Context, actor *domain.User, requestID int64, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.NewValidationError("Comment content is required", nil)
	}
	if len(content) > maxCommentLength {
		return nil, apperrors.NewValidationError("Comment is too long", map[string]any{"max_length": maxCommentLength})
	}
	request, err := s.fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, request) {
		return nil, apperrors.NewForbidden("Not authorized to comment on this request")
	}

	userID := actor.ID
	comment := &domain.Comment{
		RequestID:  requestID,
		UserID:     &userID,
		AuthorName: actor.Name,
		Content:    content,
		CreatedAt:  s.clock(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventCommentAdded, requestID, actor, events.CommentAddedPayload{
		CommentID:  comment.ID,
		AuthorName: comment.AuthorName,
	})
	return comment, nil
}

// Timeline reconstructs the request history: creation, each submission
// event, and the current status. Entries are sorted by timestamp; on ties
// creation sorts before submissions, submissions before the status entry.
func (s *RequestService) Timeline(ctx context.Context, actor *domain.User, id int64) ([]TimelineEntry, error) {
	request, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, request) {
		return nil, apperrors.NewForbidden("Not authorized to view this request")
	}
	submissionEvents, err := s.submissions.ListByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := []TimelineEntry{{
		Type:      "CREATED",
		Label:     "Request created",
		Timestamp: request.CreatedAt,
	}}
	for _, event := range submissionEvents {
		label := "Result files submitted"
		if event.EventType == domain.EventTypeResubmission {
			label = "Result files resubmitted"
		}
		entries = append(entries, TimelineEntry{
			Type:      string(event.EventType),
			Label:     label,
			Timestamp: event.CreatedAt,
		})
	}
	if request.Status != domain.RequestStatusPending {
		entries = append(entries, TimelineEntry{
			Type:      "STATUS",
			Label:     statusLabel(request.Status),
			Timestamp: request.UpdatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries, nil
}

func statusLabel(status domain.RequestStatus) string {
	switch status {
	case domain.RequestStatusInProgress:
		return "Moved to In Progress"
	case domain.RequestStatusCompleted:
		return "Marked as Completed"
	case domain.RequestStatusReturned:
		return "Returned to Developer"
	case domain.RequestStatusRejected:
		return "Rejected"
	default:
		return "Status changed"
	}
}

// Stats aggregates counts and average turnaround over the requests visible
// to the actor. Turnaround is updatedAt-createdAt of completed requests,
// reported in days; zero completed requests yields zero, not NaN.
func (s *RequestService) Stats(ctx context.Context, actor *domain.User) (*RequestStats, error) {
	filter := repository.RequestFilter{}
	if actor.Role != domain.RoleDeveloper {
		requesterID := actor.ID
		filter.RequesterID = &requesterID
	}
	requests, err := s.requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &RequestStats{
		Total:          len(requests),
		CountsByStatus: make(map[domain.RequestStatus]int),
	}
	var turnaroundTotal float64
	for _, request := range requests {
		stats.CountsByStatus[request.Status]++
		if request.Status == domain.RequestStatusCompleted {
			stats.CompletedCount++
			turnaroundTotal += float64(request.UpdatedAt-request.CreatedAt) / float64(24*time.Hour/time.Millisecond)
		}
	}
	if stats.CompletedCount > 0 {
		stats.AverageTurnaroundDays = turnaroundTotal / float64(stats.CompletedCount)
	}
	return stats, nil
}

func (s *RequestService) fetch(ctx context.Context, id int64) (*domain.AutomationRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
			return nil, apperrors.NewNotFound("Request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// touch returns the current clock reading, never earlier than createdAt so
// the updatedAt >= createdAt invariant holds even with a skewed clock.
func (s *RequestService) touch(createdAt int64) int64 {
	now := s.clock()
	if now < createdAt {
		return createdAt
	}
	return now
}

func (s *RequestService) hydrate(ctx context.Context, requests []domain.AutomationRequest) error {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.ID)
	}

	attachments, err := s.attachments.MapByRequestIDs(ctx, ids)
	if err != nil {
		return err
	}
	resultFiles, err := s.resultFiles.MapByRequestIDs(ctx, ids)
	if err != nil {
		return err
	}
	submissionEvents, err := s.submissions.MapByRequestIDs(ctx, ids)
	if err != nil {
		return err
	}

	for i := range requests {
		requests[i].Attachments = attachments[requests[i].ID]
		requests[i].ResultFiles = resultFiles[requests[i].ID]
		requests[i].SubmissionEvents = submissionEvents[requests[i].ID]
	}
	return nil
}

func (s *RequestService) publish(ctx context.Context, eventType events.EventType, requestID int64, actor *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
