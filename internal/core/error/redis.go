package errx

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisErrorMessage describes Redis related failures in session storage.
const RedisErrorMessage = "redis operation failed"

// WrapRedis maps Redis errors to the unified Error type. Session storage
// failures are treated as transient: the extraction itself can proceed
// without history.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return New(err, KindTransient, RedisErrorMessage)
}
