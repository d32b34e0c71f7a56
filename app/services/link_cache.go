package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// LinkCacheConfig tunes the cid lookup cache
type LinkCacheConfig struct {
	Prefix          string
	TTL             time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// MarketingLinkCache is a read-through redis cache in front of MarketingLinkRepository.ActiveByCID.
// Redis calls run behind a circuit breaker; any cache failure falls back to the database.
type MarketingLinkCache struct {
	client  *redis.Client
	repo    repository.MarketingLinkRepository
	cfg     LinkCacheConfig
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewMarketingLinkCache(client *redis.Client, repo repository.MarketingLinkRepository, cfg LinkCacheConfig) *MarketingLinkCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	return &MarketingLinkCache{
		client:  client,
		repo:    repo,
		cfg:     cfg,
		breaker: newRedisBreaker("marketing-link-cache", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
}

func newRedisBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
}

func (c *MarketingLinkCache) key(clientID uuid.UUID, cid string) string {
	return fmt.Sprintf("%smlink:%s:%s", c.cfg.Prefix, clientID, cid)
}

// BreakerState reports the circuit breaker state for health output
func (c *MarketingLinkCache) BreakerState() string {
	return c.breaker.State().String()
}

// ActiveByCID returns the active link of the client with the given cid, or nil
func (c *MarketingLinkCache) ActiveByCID(ctx context.Context, clientID uuid.UUID, cid string) (*models.MarketingLink, error) {
	if c.client == nil {
		return c.repo.ActiveByCID(ctx, clientID, cid)
	}

	key := c.key(clientID, cid)
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		log.Printf("[LinkCache] get %s failed, falling back to database: %v", key, err)
	} else if raw != nil {
		var link models.MarketingLink
		if err := json.Unmarshal(raw, &link); err == nil {
			return &link, nil
		}
		log.Printf("[LinkCache] dropping undecodable entry %s", key)
	}

	link, err := c.repo.ActiveByCID(ctx, clientID, cid)
	if err != nil || link == nil {
		return link, err
	}

	if payload, err := json.Marshal(link); err == nil {
		_, _ = c.breaker.Execute(func() ([]byte, error) {
			return nil, c.client.Set(ctx, key, payload, c.cfg.TTL).Err()
		})
	}
	return link, nil
}

// ByID reads the link from the database; links addressed by id are not cached
func (c *MarketingLinkCache) ByID(ctx context.Context, id uint) (*models.MarketingLink, error) {
	return c.repo.ByID(ctx, id)
}

// Invalidate drops the cached entry of a cid after its link changed status
func (c *MarketingLinkCache) Invalidate(ctx context.Context, clientID uuid.UUID, cid string) error {
	if c.client == nil {
		return nil
	}
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, c.key(clientID, cid)).Err()
	})
	return err
}
