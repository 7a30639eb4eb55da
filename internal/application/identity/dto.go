package identity

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// RegisterUserRequest represents a request to register a dealership user
type RegisterUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=200"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Role      string `json:"role" binding:"required,oneof=salesperson manager admin"`
}

// UserResponse is the API shape of a user. The password hash never leaves the
// service layer.
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	DealershipID uuid.UUID `json:"dealership_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToUserResponse converts a domain user to its API shape
func ToUserResponse(u *identity.User) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		DealershipID: u.DealershipID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
	}
}
