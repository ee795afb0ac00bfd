package dto

// UserResponse is the wire shape of an account. Password hashes never
// leave the service.
type UserResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	CompanyTitle *string `json:"companyTitle,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
}

// CreateUserRequest payload for direct account provisioning.
type CreateUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	CompanyTitle string `json:"companyTitle"`
}
