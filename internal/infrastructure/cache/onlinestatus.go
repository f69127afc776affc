package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"veilgate/internal/shared/logger"
)

// onlineTTL bounds how long an online marker survives without a new
// settlement cycle seeing traffic for the user.
const onlineTTL = 10 * time.Minute

// OnlineStatusCache keeps short-lived "seen recently" markers for users
// who produced traffic in a settlement cycle. Writes are best-effort;
// the panel reads them to display online state.
type OnlineStatusCache struct {
	client *redis.Client
	logger logger.Interface
}

// NewOnlineStatusCache creates a new online status cache instance
func NewOnlineStatusCache(client *redis.Client, log logger.Interface) *OnlineStatusCache {
	return &OnlineStatusCache{
		client: client,
		logger: log,
	}
}

// MarkOnline stamps every given user as seen at the given time.
func (c *OnlineStatusCache) MarkOnline(ctx context.Context, userIDs []uint, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, uid := range userIDs {
		key := fmt.Sprintf("user:online:%d", uid)
		pipe.Set(ctx, key, at.Unix(), onlineTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warnw("failed to mark users online in redis",
			"users", len(userIDs),
			"error", err,
		)
		return fmt.Errorf("failed to mark users online: %w", err)
	}
	return nil
}
