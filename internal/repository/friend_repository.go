package repository

import (
	"context"
	"errors"

	"interview-service/internal/models"

	"gorm.io/gorm"
)

type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return errors.New("cannot add self as a friend")
	}
	friendship := models.Friend{
		UserID:   userID,
		FriendID: friendID,
		Status:   "accepted",
	}
	return r.db.WithContext(ctx).Create(&friendship).Error
}

func (r *FriendRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	// Remove the friendship in both directions
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Delete(&models.Friend{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New("friendship not found")
	}
	return err
}

func (r *FriendRepository) IsFriend(ctx context.Context, userID, friendID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friend{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetFriends walks both directions of the edge and returns the rows with
// the opposite-side user preloaded.
func (r *FriendRepository) GetFriends(ctx context.Context, userID string) ([]models.Friend, []models.Friend, error) {
	var outgoing, incoming []models.Friend
	if err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ? AND status = ?", userID, "accepted").
		Find(&outgoing).Error; err != nil {
		return nil, nil, err
	}
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("friend_id = ? AND status = ?", userID, "accepted").
		Find(&incoming).Error; err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

// FriendIDs returns only the opposite-side user ids, for presence fan-out.
func (r *FriendRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Friend{}).
		Where("user_id = ? AND status = ?", userID, "accepted").
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, err
	}
	var reverse []string
	err = r.db.WithContext(ctx).Model(&models.Friend{}).
		Where("friend_id = ? AND status = ?", userID, "accepted").
		Pluck("user_id", &reverse).Error
	if err != nil {
		return nil, err
	}
	return append(ids, reverse...), nil
}
