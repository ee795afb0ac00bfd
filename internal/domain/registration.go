package domain

// RegistrationStatus enumerates the review states of a signup request.
// APPROVED and REJECTED are terminal.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusApproved RegistrationStatus = "APPROVED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
)

// RegistrationRequest is a self-service signup awaiting developer review.
// The password is hashed at intake and carried over on approval.
type RegistrationRequest struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Status       RegistrationStatus
	CompanyTitle *string
	CreatedAt    int64
	ReviewedBy   *int64
	ReviewedAt   *int64
}
