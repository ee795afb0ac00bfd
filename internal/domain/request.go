package domain

// RequestStatus enumerates lifecycle states for automation requests.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusReturned   RequestStatus = "RETURNED"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusRejected   RequestStatus = "REJECTED"
)

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow      RequestPriority = "LOW"
	RequestPriorityMedium   RequestPriority = "MEDIUM"
	RequestPriorityHigh     RequestPriority = "HIGH"
	RequestPriorityCritical RequestPriority = "CRITICAL"
)

// ValidPriority reports whether the priority is a known value.
func ValidPriority(p RequestPriority) bool {
	switch p {
	case RequestPriorityLow, RequestPriorityMedium, RequestPriorityHigh, RequestPriorityCritical:
		return true
	}
	return false
}

// ValidStatus reports whether the status is a known value.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusReturned,
		RequestStatusCompleted, RequestStatusRejected:
		return true
	}
	return false
}

var allowedTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusInProgress},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusRejected},
	RequestStatusCompleted:  {RequestStatusReturned},
	RequestStatusReturned:   {RequestStatusInProgress, RequestStatusCompleted},
	RequestStatusRejected:   {},
}

// IsValidTransition reports whether moving from current to next is allowed
// by the lifecycle graph. Submitting result files bypasses this check and
// always lands on COMPLETED.
func IsValidTransition(current, next RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AutomationRequest is the central aggregate: a unit of work requested by an
// employee and fulfilled by a developer. Timestamps are epoch milliseconds.
type AutomationRequest struct {
	ID             int64
	Title          string
	Description    string
	Status         RequestStatus
	Priority       RequestPriority
	ProjectName    string
	RevitVersion   string
	RequesterID    int64
	RequesterName  string
	CreatedAt      int64
	UpdatedAt      int64
	DueDate        *string
	ResultScript   *string
	ResultFileName *string
	AIAnalysis     *string
	DeveloperNotes *string

	Attachments      []Attachment
	ResultFiles      []ResultFile
	SubmissionEvents []SubmissionEvent
	Comments         []Comment
}

// SubmissionCount is derived from the audit trail, which keeps the
// count >= len(events) invariant trivially true.
func (r *AutomationRequest) SubmissionCount() int {
	return len(r.SubmissionEvents)
}
