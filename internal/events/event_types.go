package events

import (
	"time"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventResultFilesSubmitted EventType = "result_files_submitted"
	EventCommentAdded         EventType = "comment_added"
	EventRegistrationReviewed EventType = "registration_reviewed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID int64       `json:"request_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Title       string                 `json:"title"`
	Priority    domain.RequestPriority `json:"priority"`
	ProjectName string                 `json:"project_name"`
	RequesterID int64                  `json:"requester_id"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// ResultFilesSubmittedPayload payload.
type ResultFilesSubmittedPayload struct {
	EventType  domain.SubmissionEventType `json:"event_type"`
	AddedFiles int                        `json:"added_files"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  int64  `json:"comment_id"`
	AuthorName string `json:"author_name"`
}

// RegistrationReviewedPayload payload.
type RegistrationReviewedPayload struct {
	RegistrationID int64                     `json:"registration_id"`
	Status         domain.RegistrationStatus `json:"status"`
	Email          string                    `json:"email"`
}
