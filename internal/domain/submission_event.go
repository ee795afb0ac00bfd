package domain

// SubmissionEventType distinguishes the first file delivery from later ones.
type SubmissionEventType string

const (
	EventTypeSubmission   SubmissionEventType = "SUBMISSION"
	EventTypeResubmission SubmissionEventType = "RESUBMISSION"
)

// SubmissionEvent is an append-only audit record of a result-file batch.
// Events are never mutated after creation; deleting a result file later does
// not decrement AddedFiles.
type SubmissionEvent struct {
	ID         int64
	RequestID  int64
	EventType  SubmissionEventType
	CreatedAt  int64
	AddedFiles int
}
