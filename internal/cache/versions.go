// Package cache implements the invalidation contract for poll-based
// clients: every mutation bumps a version counter per read-view, and
// pollers compare counters before refetching. This replaces the global
// query-cache object of timer-driven designs with explicit state.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// View names the read-views a mutation can invalidate.
type View string

const (
	ViewEntitlements View = "entitlements"
	ViewThreads      View = "threads"
	ViewMessages     View = "messages"
	ViewBlocklist    View = "blocklist"
	ViewUsers        View = "users"
)

// AllViews in the order Snapshot reports them.
var AllViews = []View{ViewEntitlements, ViewThreads, ViewMessages, ViewBlocklist, ViewUsers}

// Versions keeps one monotonic counter per view in Redis. Counters carry
// no meaning beyond "changed since you last looked".
type Versions struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewVersions(rdb *redis.Client, logger *zap.Logger) *Versions {
	return &Versions{rdb: rdb, logger: logger}
}

func key(v View) string {
	return "view_version:" + string(v)
}

func threadKey(threadID int64) string {
	return fmt.Sprintf("view_version:messages:%d", threadID)
}

// Bump increments the counters for the given views. Failures are logged
// and swallowed: the mutation already happened, and pollers fall back to
// their regular cadence.
func (v *Versions) Bump(ctx context.Context, views ...View) {
	if v == nil || v.rdb == nil {
		return
	}
	for _, view := range views {
		if err := v.rdb.Incr(ctx, key(view)).Err(); err != nil {
			v.logger.Warn("version bump failed",
				zap.String("view", string(view)),
				zap.Error(err),
			)
		}
	}
}

// BumpThread increments the per-thread message counter alongside the
// coarse messages view.
func (v *Versions) BumpThread(ctx context.Context, threadID int64) {
	if v == nil || v.rdb == nil {
		return
	}
	if err := v.rdb.Incr(ctx, threadKey(threadID)).Err(); err != nil {
		v.logger.Warn("thread version bump failed",
			zap.Int64("thread_id", threadID),
			zap.Error(err),
		)
	}
	v.Bump(ctx, ViewMessages)
}

// Snapshot returns the current counter for every coarse view. Missing
// keys read as zero.
func (v *Versions) Snapshot(ctx context.Context) (map[View]int64, error) {
	out := make(map[View]int64, len(AllViews))
	if v == nil || v.rdb == nil {
		for _, view := range AllViews {
			out[view] = 0
		}
		return out, nil
	}

	keys := make([]string, len(AllViews))
	for i, view := range AllViews {
		keys[i] = key(view)
	}
	vals, err := v.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read view versions: %w", err)
	}
	for i, view := range AllViews {
		out[view] = parseCounter(vals[i])
	}
	return out, nil
}

// ThreadVersion returns the per-thread message counter.
func (v *Versions) ThreadVersion(ctx context.Context, threadID int64) (int64, error) {
	if v == nil || v.rdb == nil {
		return 0, nil
	}
	val, err := v.rdb.Get(ctx, threadKey(threadID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read thread version: %w", err)
	}
	return parseCounter(val), nil
}

func parseCounter(val any) int64 {
	s, ok := val.(string)
	if !ok {
		return 0
	}
	var n int64
	_, _ = fmt.Sscan(s, &n)
	return n
}
