package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceRepository keeps online/offline status in Redis with TTLs so a
// crashed process cannot leave users online forever. Presence is
// best-effort: callers treat failures as non-fatal.
type PresenceRepository struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// SetOnline - Key: "presence:{userID}" = online, TTL 5 minutes.
func (r *PresenceRepository) SetOnline(ctx context.Context, userID string) error {
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, "online_users", userID)
	pipe.Set(ctx, "presence:"+userID, "online", 5*time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline - offline marker kept briefly to avoid status flicker.
func (r *PresenceRepository) SetOffline(ctx context.Context, userID string) error {
	pipe := r.client.Pipeline()
	pipe.SRem(ctx, "online_users", userID)
	pipe.Set(ctx, "presence:"+userID, "offline", time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *PresenceRepository) IsOnline(ctx context.Context, userID string) (bool, error) {
	val, err := r.client.Get(ctx, "presence:"+userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "online", nil
}

// OnlineAmong filters the given user ids down to the ones currently online.
// Uses a pipeline to keep it one roundtrip.
func (r *PresenceRepository) OnlineAmong(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	cmds, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Get(ctx, "presence:"+id)
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, err
	}

	online := make([]string, 0)
	for i, cmd := range cmds {
		if val, _ := cmd.(*redis.StringCmd).Result(); val == "online" {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}
