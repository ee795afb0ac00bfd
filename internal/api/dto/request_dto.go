package dto

// FilePayload is an uploaded file: name, MIME type and a base64 data URI.
type FilePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// CreateRequestRequest payload for POST /requests.
type CreateRequestRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       string        `json:"status"`
	Priority     string        `json:"priority"`
	ProjectName  string        `json:"projectName"`
	RevitVersion string        `json:"revitVersion"`
	RequesterID  *int64        `json:"requesterId"`
	DueDate      *string       `json:"dueDate"`
	Attachments  []FilePayload `json:"attachments"`
}

// UpdateRequestRequest payload for PUT /requests/:id. Absent fields are
// left unchanged.
type UpdateRequestRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	ProjectName    *string `json:"projectName"`
	RevitVersion   *string `json:"revitVersion"`
	DueDate        *string `json:"dueDate"`
	ResultScript   *string `json:"resultScript"`
	ResultFileName *string `json:"resultFileName"`
	AIAnalysis     *string `json:"aiAnalysis"`
	DeveloperNotes *string `json:"developerNotes"`
}

// SubmitResultFilesRequest payload for POST /requests/:id/result-files.
type SubmitResultFilesRequest struct {
	Files []FilePayload `json:"files"`
}

// AttachmentResponse is the wire shape of a stored file.
type AttachmentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// SubmissionEventResponse is one row of the fulfillment audit trail.
type SubmissionEventResponse struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp"`
	AddedFiles int    `json:"addedFiles"`
}

// CommentResponse is the wire shape of a discussion comment.
type CommentResponse struct {
	ID         int64  `json:"id"`
	RequestID  int64  `json:"requestId"`
	UserID     *int64 `json:"userId,omitempty"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"`
}

// CreateCommentRequest payload for POST /requests/:id/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// RequestResponse is the full wire shape of an automation request.
type RequestResponse struct {
	ID               int64                     `json:"id"`
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	Status           string                    `json:"status"`
	Priority         string                    `json:"priority"`
	ProjectName      string                    `json:"projectName"`
	RevitVersion     string                    `json:"revitVersion"`
	RequesterID      int64                     `json:"requesterId"`
	RequesterName    string                    `json:"requesterName"`
	CreatedAt        int64                     `json:"createdAt"`
	UpdatedAt        int64                     `json:"updatedAt"`
	DueDate          *string                   `json:"dueDate,omitempty"`
	ResultScript     *string                   `json:"resultScript,omitempty"`
	ResultFileName   *string                   `json:"resultFileName,omitempty"`
	AIAnalysis       *string                   `json:"aiAnalysis,omitempty"`
	DeveloperNotes   *string                   `json:"developerNotes,omitempty"`
	Attachments      []AttachmentResponse      `json:"attachments"`
	ResultFiles      []AttachmentResponse      `json:"resultFiles"`
	SubmissionEvents []SubmissionEventResponse `json:"submissionEvents"`
	SubmissionCount  int                       `json:"submissionCount"`
	Comments         []CommentResponse         `json:"comments,omitempty"`
}

// TimelineEntryResponse is one row of the request timeline.
type TimelineEntryResponse struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	Timestamp int64  `json:"timestamp"`
}

// StatsResponse aggregates dashboard numbers.
type StatsResponse struct {
	Total                 int            `json:"total"`
	ByStatus              map[string]int `json:"byStatus"`
	CompletedCount        int            `json:"completedCount"`
	AverageTurnaroundDays float64        `json:"averageTurnaroundDays"`
}
