package gateway

import (
	"context"

	"interview-service/internal/models"
)

// PresenceNotifier reacts to a user's online/offline transitions: it
// records the status in the presence store and tells the user's friends.
// Everything here is fire-and-forget; presence failures must never abort
// a connect or disconnect.
type PresenceNotifier struct {
	hub      *Hub
	friends  FriendDirectory
	presence PresenceStore
}

func NewPresenceNotifier(hub *Hub, friends FriendDirectory, presence PresenceStore) *PresenceNotifier {
	return &PresenceNotifier{
		hub:      hub,
		friends:  friends,
		presence: presence,
	}
}

// UserOnline fires on the user's first open connection.
func (n *PresenceNotifier) UserOnline(user *models.UserSummary) {
	if n.presence != nil {
		store := n.presence
		userID := user.ID
		bestEffort("presence online", func() error {
			return store.SetOnline(context.Background(), userID)
		})
	}
	n.notifyFriends(user, EventFriendOnline, "online")
}

// UserOffline fires when the user's last connection closes.
func (n *PresenceNotifier) UserOffline(user *models.UserSummary) {
	if n.presence != nil {
		store := n.presence
		userID := user.ID
		bestEffort("presence offline", func() error {
			return store.SetOffline(context.Background(), userID)
		})
	}
	n.notifyFriends(user, EventFriendOffline, "offline")
}

// notifyFriends emits the status to each friend's personal channel. Only
// job seekers participate in the friend graph.
func (n *PresenceNotifier) notifyFriends(user *models.UserSummary, event EventType, status string) {
	if n.friends == nil || user.Role != models.RoleJobSeeker {
		return
	}

	hub := n.hub
	friends := n.friends
	userID := user.ID
	bestEffort("friend status fan-out", func() error {
		ids, err := friends.FriendIDs(context.Background(), userID)
		if err != nil {
			return err
		}
		for _, friendID := range ids {
			hub.sendToUser(friendID, event, FriendStatusPayload{
				UserID: userID,
				Status: status,
			})
		}
		return nil
	})
}
