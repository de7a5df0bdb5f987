package verification

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"estate-journal/internal/errs"
)

// consumeScript deletes the record when code matches and now is not past
// expires_at. An expired record is deleted as well, but reported as a miss.
var consumeScript = redis.NewScript(`
local code = redis.call("HGET", KEYS[1], "code")
if not code then
	return 0
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at"))
if expires == nil or expires < tonumber(ARGV[2]) then
	redis.call("DEL", KEYS[1])
	return 0
end
if code ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// cleanupGrace is added to the redis TTL; expiry itself is checked by the script.
const cleanupGrace = time.Minute

type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb, prefix: "verify:"}
}

func (b *RedisBackend) key(email string) string {
	return b.prefix + email
}

func (b *RedisBackend) Replace(ctx context.Context, email, code string, expires time.Time) error {
	key := b.key(email)
	ttl := time.Until(expires) + cleanupGrace
	if ttl < cleanupGrace {
		ttl = cleanupGrace
	}
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "expires_at", strconv.FormatInt(expires.UnixMilli(), 10))
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return errs.Unavailable("codes.replace", err)
}

func (b *RedisBackend) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, b.rdb, []string{b.key(email)}, code, now.UnixMilli()).Int()
	if err != nil {
		return false, errs.Unavailable("codes.consume", err)
	}
	return n == 1, nil
}
