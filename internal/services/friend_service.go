package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"interview-service/internal/models"
	"interview-service/internal/repository"
)

var (
	ErrAlreadyFriends = errors.New("users are already friends")
	ErrSelfFriend     = errors.New("cannot add yourself as a friend")
)

type FriendService struct {
	friends  *repository.FriendRepository
	users    *repository.UserRepository
	presence *repository.PresenceRepository
}

func NewFriendService(friends *repository.FriendRepository, users *repository.UserRepository, presence *repository.PresenceRepository) *FriendService {
	return &FriendService{friends: friends, users: users, presence: presence}
}

func (s *FriendService) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return ErrSelfFriend
	}
	if _, err := s.users.FindByID(ctx, friendID); err != nil {
		return ErrUserNotFound
	}

	exists, err := s.friends.IsFriend(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists {
		return ErrAlreadyFriends
	}

	if err := s.friends.AddFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}

	slog.Info("Friend added", "userID", userID, "friendID", friendID)
	return nil
}

func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.friends.RemoveFriend(ctx, userID, friendID)
}

// ListFriends returns the friend list with a live online flag for each
// entry. A presence lookup failure degrades to everyone offline rather
// than failing the request.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.FriendResponse, error) {
	outgoing, incoming, err := s.friends.GetFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	friendIDs := make([]string, 0, len(outgoing)+len(incoming))
	byID := make(map[string]*models.User, len(outgoing)+len(incoming))
	for i := range outgoing {
		friendIDs = append(friendIDs, outgoing[i].FriendID)
		byID[outgoing[i].FriendID] = &outgoing[i].Friend
	}
	for i := range incoming {
		friendIDs = append(friendIDs, incoming[i].UserID)
		byID[incoming[i].UserID] = &incoming[i].User
	}

	online := make(map[string]bool, len(friendIDs))
	if s.presence != nil {
		ids, err := s.presence.OnlineAmong(ctx, friendIDs)
		if err != nil {
			slog.Warn("Presence lookup failed, marking friends offline", "userID", userID, "error", err)
		}
		for _, id := range ids {
			online[id] = true
		}
	}

	results := make([]models.FriendResponse, 0, len(friendIDs))
	for _, id := range friendIDs {
		user := byID[id]
		results = append(results, models.FriendResponse{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Status:    "accepted",
			Online:    online[id],
		})
	}
	return results, nil
}

// FriendIDs feeds the gateway's presence fan-out.
func (s *FriendService) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	return s.friends.FriendIDs(ctx, userID)
}
