package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friend is a directed edge in the friend graph. Listing a user's friends
// walks both directions of the edge.
type Friend struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"type:uuid;index;not null" json:"userId"`
	FriendID string `gorm:"type:uuid;index;not null" json:"friendId"`
	Status   string `gorm:"not null;type:varchar(32);default:'accepted'" json:"status"`

	User   User `gorm:"foreignKey:UserID;references:ID" json:"user"`
	Friend User `gorm:"foreignKey:FriendID;references:ID" json:"friend"`

	CreatedAt time.Time `json:"createdAt"`
}

func (f *Friend) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// FriendResponse represents the friend data returned to the client
type FriendResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Status    string `json:"status"`
	Online    bool   `json:"online"`
}

type AddFriendRequest struct {
	FriendID string `json:"friendId" binding:"required,uuid"`
}
