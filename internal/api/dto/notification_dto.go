package dto

// SendEmailRequest payload for POST /notifications/email.
type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendEmailResponse reports how the message was delivered.
type SendEmailResponse struct {
	Status string `json:"status"`
	To     string `json:"to"`
}
