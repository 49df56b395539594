package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadbot-backend/internal/dialog"
)

const (
	redisKeyPrefix  = "leadbot:session:"
	redisLockPrefix = "leadbot:lock:"

	// DefaultLockTTL outlives the longest turn: one model call.
	DefaultLockTTL = 45 * time.Second
	lockRetry      = 25 * time.Millisecond
)

// releaseLock deletes the lock only while it still carries our token, so an
// expired lock taken over by another replica is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions as JSON documents so several server replicas
// can share conversations. Replicas serialise turns on a session through
// Lock. A zero ttl keeps keys until deleted.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: DefaultLockTTL}
}

// Lock takes the session lock with SET NX PX, polling until it is free, the
// context ends or the lock ttl has passed.
func (r *RedisStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	key := redisLockPrefix + sessionID
	token := uuid.NewString()
	giveUp := time.Now().Add(r.lockTTL)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
		}
		if ok {
			break
		}
		if time.Now().After(giveUp) {
			return nil, fmt.Errorf("lock session %s: %w", sessionID, ErrLockTimeout)
		}
		t := time.NewTimer(lockRetry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("lock session %s: %w", sessionID, ctx.Err())
		case <-t.C:
		}
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		_ = releaseLock.Run(rctx, r.client, []string{key}, token).Err()
	}, nil
}

// DialRedis opens a client and checks the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (r *RedisStore) GetOrCreate(ctx context.Context, sessionID string, industry dialog.Industry) (*dialog.Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	raw, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		s := dialog.NewSession(sessionID, industry)
		if err := r.Save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	var s dialog.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if s.Data == nil {
		s.Data = make(map[dialog.Field]string)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *dialog.Session) error {
	if s == nil || s.ID == "" {
		return ErrEmptySessionID
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}
