package domain

import "time"

// User representa quem acessa a API de suprimentos.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é o papel do usuário.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// UserRegistration é o payload de registro.
type UserRegistration struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3nh4-forte"`
}
