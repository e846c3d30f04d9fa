package lock

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock that someone else re-acquired is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is an AccountLocker shared by every replica talking to the same Redis.
type Redis struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
}

func NewRedis(rdb redis.UniversalClient) *Redis {
	return &Redis{
		rdb:     rdb,
		ttl:     30 * time.Second,
		retry:   100 * time.Millisecond,
		maxWait: 15 * time.Second,
	}
}

func (r *Redis) key(accountID int64) string {
	return fmt.Sprintf("portal-social:account-lock:%d", accountID)
}

func (r *Redis) Lock(ctx context.Context, accountID int64) (func(), error) {
	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	key := r.key(accountID)
	deadline := time.Now().Add(r.maxWait)

	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring account lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.rdb, []string{key}, token).Err()
	}, nil
}
