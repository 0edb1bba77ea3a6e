package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepstack/prepstack-api/internal/repository"
)

// DailyQuota gates how many code submissions a user may make per day. Allow
// must be atomic: concurrent calls for the same user never let the count
// exceed the cap. Release returns a slot charged for a run the judge never
// completed.
type DailyQuota interface {
	Allow(ctx context.Context, userID uint) (bool, error)
	Release(ctx context.Context, userID uint)
}

type redisDailyQuota struct {
	client      *redis.Client
	submissions repository.SubmissionRepository
	limit       int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRedisDailyQuota builds a Redis-backed daily quota. The per-user counter
// is a single INCR keyed by UTC date, so check-and-increment cannot race.
// When Redis is unreachable the persisted submission history serves as the
// count of record.
func NewRedisDailyQuota(client *redis.Client, submissions repository.SubmissionRepository, limit int, logger zerolog.Logger) DailyQuota {
	return &redisDailyQuota{
		client:      client,
		submissions: submissions,
		limit:       limit,
		logger:      logger.With().Str("component", "daily_quota").Logger(),
		now:         time.Now,
	}
}

func (q *redisDailyQuota) Allow(ctx context.Context, userID uint) (bool, error) {
	if q.limit <= 0 {
		return true, nil
	}

	day := q.now().UTC()
	key := q.key(userID, day)

	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return q.allowFromHistory(ctx, userID, day, err)
	}

	if count == 1 {
		midnight := day.Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := q.client.ExpireAt(ctx, key, midnight).Err(); err != nil {
			q.logger.Warn().Err(err).Str("key", key).Msg("failed to set quota expiry")
		}
	}

	if count > int64(q.limit) {
		// Rejected attempts do not consume quota.
		if err := q.client.Decr(ctx, key).Err(); err != nil {
			q.logger.Warn().Err(err).Str("key", key).Msg("failed to release quota slot")
		}
		return false, nil
	}

	return true, nil
}

// Release undoes one Allow so judge outages do not eat into the daily cap.
func (q *redisDailyQuota) Release(ctx context.Context, userID uint) {
	if q.limit <= 0 {
		return
	}

	key := q.key(userID, q.now().UTC())
	if err := q.client.Decr(ctx, key).Err(); err != nil {
		q.logger.Warn().Err(err).Str("key", key).Msg("failed to refund quota slot")
	}
}

// allowFromHistory audits the persisted submission records when the Redis
// counter is unavailable. The check is not atomic, but a degraded window is
// better than refusing every submission during a Redis outage.
func (q *redisDailyQuota) allowFromHistory(ctx context.Context, userID uint, day time.Time, cause error) (bool, error) {
	startOfDay := day.Truncate(24 * time.Hour)

	count, err := q.submissions.CountForUserSince(ctx, userID, startOfDay)
	if err != nil {
		return false, fmt.Errorf("increment daily quota: %w", cause)
	}

	q.logger.Warn().Err(cause).Uint("user_id", userID).Int64("persisted_today", count).
		Msg("redis quota unavailable, falling back to submission history")
	return count < int64(q.limit), nil
}

func (q *redisDailyQuota) key(userID uint, day time.Time) string {
	return fmt.Sprintf("quota:code:%d:%s", userID, day.Format("2006-01-02"))
}
