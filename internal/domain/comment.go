package domain

// Comment is an append-only thread entry on a request.
type Comment struct {
	ID         int64
	RequestID  int64
	UserID     *int64
	AuthorName string
	Content    string
	CreatedAt  int64
}
