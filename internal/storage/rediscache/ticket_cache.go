package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cimillas/ticket-issuer/internal/domain"
)

const (
	keyPrefix  = "ticket:"
	DefaultTTL = 10 * time.Minute
)

// TicketCache stores looked-up tickets in Redis as JSON under ticket:<id>.
type TicketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTicketCache(rdb *redis.Client, ttl time.Duration) *TicketCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TicketCache{rdb: rdb, ttl: ttl}
}

// Connect dials addr and verifies it answers PING.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

type cachedTicket struct {
	ID        string    `json:"id"`
	TaxID     string    `json:"vatin"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *TicketCache) Get(ctx context.Context, id string) (domain.Ticket, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Ticket{}, false, nil
		}
		return domain.Ticket{}, false, fmt.Errorf("redis get ticket: %w", err)
	}

	var ct cachedTicket
	if err := json.Unmarshal(raw, &ct); err != nil {
		return domain.Ticket{}, false, fmt.Errorf("decode cached ticket: %w", err)
	}
	return domain.Ticket{
		ID:        ct.ID,
		TaxID:     ct.TaxID,
		FirstName: ct.FirstName,
		LastName:  ct.LastName,
		CreatedAt: ct.CreatedAt.UTC(),
	}, true, nil
}

func (c *TicketCache) Set(ctx context.Context, t domain.Ticket) error {
	raw, err := json.Marshal(cachedTicket{
		ID:        t.ID,
		TaxID:     t.TaxID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		CreatedAt: t.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+t.ID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set ticket: %w", err)
	}
	return nil
}

func (c *TicketCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
