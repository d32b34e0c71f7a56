package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVisitDeduplicator claims one SETNX key per (campaign, session) for the dedup window
type RedisVisitDeduplicator struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedisVisitDeduplicator(client *redis.Client, prefix string, window time.Duration) *RedisVisitDeduplicator {
	return &RedisVisitDeduplicator{client: client, prefix: prefix, window: window}
}

// FirstInWindow reports whether this is the first visit of the session inside the window.
// Without redis, or with a non-positive window, every visit counts as first.
func (d *RedisVisitDeduplicator) FirstInWindow(ctx context.Context, campaignID uint, sessionID string) (bool, error) {
	if d == nil || d.client == nil || d.window <= 0 {
		return true, nil
	}
	return d.client.SetNX(ctx, d.key(campaignID, sessionID), 1, d.window).Result()
}

// Release drops the claim of a session so its next visit counts as first again
func (d *RedisVisitDeduplicator) Release(ctx context.Context, campaignID uint, sessionID string) error {
	if d == nil || d.client == nil || d.window <= 0 {
		return nil
	}
	return d.client.Del(ctx, d.key(campaignID, sessionID)).Err()
}

func (d *RedisVisitDeduplicator) key(campaignID uint, sessionID string) string {
	return fmt.Sprintf("%svisit:%d:%s", d.prefix, campaignID, sessionID)
}
