package domain

// Attachment is a requester-supplied input file, stored as a base64 data URI.
type Attachment struct {
	ID        int64
	RequestID int64
	Name      string
	Type      string
	Data      string
}

// ResultFile is a developer-supplied output file, stored as a base64 data URI.
type ResultFile struct {
	ID        int64
	RequestID int64
	Name      string
	Type      string
	Data      string
}
