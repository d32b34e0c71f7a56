package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a single-holder lease used to keep periodic jobs on one instance
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// TryAcquire takes the lease if it is free. The returned release func is a no-op when ok is false.
func (l *RedisLock) TryAcquire(ctx context.Context) (release func(), ok bool, err error) {
	noop := func() {}
	if l.client == nil {
		return noop, true, nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return noop, false, err
	}
	token := hex.EncodeToString(buf)

	ok, err = l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return noop, false, err
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{l.key}, token).Err()
	}, true, nil
}
