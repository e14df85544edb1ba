package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The rerun queue holds IDs of failed tests so a later run can
// re-execute only the failures. Failures are scored by completion time;
// PopFailed drains oldest first.

func rerunKey(suite string) string {
	return fmt.Sprintf("rerun_queue:%s", suite)
}

// PushFailed adds a failed test to the suite's rerun queue.
func (c *Client) PushFailed(ctx context.Context, suite, testID string) error {
	key := rerunKey(suite)
	z := redis.Z{Score: float64(time.Now().UnixNano()), Member: testID}
	if err := c.rdb.ZAdd(ctx, key, z).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// PopFailed removes and returns the oldest failed test ID.
func (c *Client) PopFailed(ctx context.Context, suite string) (testID string, found bool, err error) {
	key := rerunKey(suite)

	results, err := c.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return "", false, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return "", false, nil
	}

	member := results[0].Member.(string)
	if err := c.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return "", false, fmt.Errorf("zrem failed: %w", err)
	}
	return member, true, nil
}

// FailedTests returns every test ID currently queued for rerun.
func (c *Client) FailedTests(ctx context.Context, suite string) ([]string, error) {
	return c.rdb.ZRange(ctx, rerunKey(suite), 0, -1).Result()
}

// QueueDepth returns the number of failed tests awaiting rerun.
func (c *Client) QueueDepth(ctx context.Context, suite string) (int64, error) {
	return c.rdb.ZCard(ctx, rerunKey(suite)).Result()
}

// ClearQueue drops the suite's rerun queue.
func (c *Client) ClearQueue(ctx context.Context, suite string) error {
	return c.rdb.Del(ctx, rerunKey(suite)).Err()
}
