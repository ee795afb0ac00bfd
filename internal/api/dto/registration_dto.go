package dto

// RegistrationResponse is the wire shape of a signup application.
type RegistrationResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Status       string  `json:"status"`
	CompanyTitle *string `json:"companyTitle,omitempty"`
	CreatedAt    int64   `json:"createdAt"`
	ReviewedBy   *int64  `json:"reviewedBy,omitempty"`
	ReviewedAt   *int64  `json:"reviewedAt,omitempty"`
}

// ApproveRegistrationRequest carries optional reviewer overrides.
type ApproveRegistrationRequest struct {
	Role         *string `json:"role"`
	CompanyTitle *string `json:"companyTitle"`
}
