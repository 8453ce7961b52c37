package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/tripsearch/internal/offer"
)

const (
	defaultTTL       = time.Hour
	maxUpdateRetries = 5
)

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps search responses in Redis as JSON with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. A non-positive ttl selects one hour.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(requestID string) string {
	return "search:" + requestID
}

// Save stores resp under its request id.
func (s *RedisStore) Save(ctx context.Context, resp offer.SearchResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling search %s: %w", resp.RequestID, err)
	}
	if err := s.client.Set(ctx, key(resp.RequestID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing search %s: %w", resp.RequestID, err)
	}
	return nil
}

// Get returns the stored response. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, requestID string) (offer.SearchResponse, bool, error) {
	val, err := s.client.Get(ctx, key(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return offer.SearchResponse{}, false, nil
		}
		return offer.SearchResponse{}, false, fmt.Errorf("loading search %s: %w", requestID, err)
	}
	return decode(requestID, val)
}

func decode(requestID string, val []byte) (offer.SearchResponse, bool, error) {
	var resp offer.SearchResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return offer.SearchResponse{}, false, fmt.Errorf("unmarshaling search %s: %w", requestID, err)
	}
	return resp, true, nil
}

// Update applies fn inside a WATCH/MULTI transaction. A concurrent writer aborts the
// transaction and the update is retried against the newer value, so no update is lost.
func (s *RedisStore) Update(ctx context.Context, requestID string, fn UpdateFunc) (offer.SearchResponse, bool, error) {
	k := key(requestID)

	var (
		next  offer.SearchResponse
		found bool
	)
	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		current, _, err := decode(requestID, val)
		if err != nil {
			return err
		}
		found = true
		next = fn(current)
		next.RequestID = requestID

		b, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshaling search %s: %w", requestID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			if !found {
				return offer.SearchResponse{}, false, nil
			}
			return next, true, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return offer.SearchResponse{}, false, fmt.Errorf("updating search %s: %w", requestID, err)
	}

	return offer.SearchResponse{}, false, fmt.Errorf("updating search %s: too much contention", requestID)
}
