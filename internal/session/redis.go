package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/fairyhunter13/hampers-storefront/internal/cart"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

const redisKeyPrefix = "storefront:session:"

// RedisStore keeps each session as a JSON value that expires after ttl of
// inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore accepts either a redis:// URL or a bare host:port.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}
	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return redisKeyPrefix + id }

func (r *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	b, err := r.client.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get session")
	}
	st := NewState()
	if err := json.Unmarshal(b, st); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	if st.Cart == nil {
		st.Cart = cart.New()
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key(id), r.ttl).Err(); err != nil {
			obs.Logger.WithError(err).Warn("session_touch_failed")
		}
	}
	return st, nil
}

func (r *RedisStore) Put(ctx context.Context, id string, st *State) error {
	if id == "" || st == nil {
		return nil
	}
	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.client.Set(ctx, key(id), b, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set session")
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return errors.Wrap(err, "redis del session")
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		obs.Logger.WithError(err).Warn("redis_ping_failed")
		return false
	}
	return true
}

// Close releases the connection pool.
func (r *RedisStore) Close() error { return r.client.Close() }
