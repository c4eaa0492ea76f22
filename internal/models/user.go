package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the role a user picked during onboarding. Only job seekers
// participate in the friend graph.
type UserRole string

const (
	RoleJobSeeker   UserRole = "JOB_SEEKER"
	RoleInterviewer UserRole = "INTERVIEWER"
)

func (r UserRole) IsValid() bool {
	return r == RoleJobSeeker || r == RoleInterviewer
}

/** --------------------ENTITIES-------------------- */

// User represents the user entity
type User struct {
	ID        string   `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Password  string   `json:"-"` // Password is hashed and not returned in responses
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      UserRole `gorm:"type:varchar(32);default:'JOB_SEEKER'" json:"role"`
	// Avatar is optional and can be used to store a profile picture URL.
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// UserSummary is the denormalized user payload attached to gateway
// connections and broadcast alongside room events.
type UserSummary struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      UserRole `json:"role"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

/** -------------------- DTOs -------------------- */

// Request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
}

// LoginRequest represents the request for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CompleteOnboardingRequest struct {
	Role UserRole `json:"role" binding:"required,oneof=JOB_SEEKER INTERVIEWER"`
}

// Update user request
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" binding:"omitempty,max=100"`
	Avatar    *string `json:"avatar,omitempty"`
}

// Response
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      UserRole  `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse represents the response for a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}
