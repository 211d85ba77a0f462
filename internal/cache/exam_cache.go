package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetView when no view is cached.
var ErrMiss = errors.New("cache miss")

// StatusEvent is published whenever an exam changes lifecycle state.
type StatusEvent struct {
	ExamID string           `json:"exam_id"`
	Status model.ExamStatus `json:"status"`
	Ready  bool             `json:"exam_ready"`
}

// ExamCache stores rendered exam views and carries status events over Redis.
type ExamCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewExamCache creates a new ExamCache.
func NewExamCache(rdb *redis.Client, ttl time.Duration) *ExamCache {
	return &ExamCache{rdb: rdb, ttl: ttl}
}

// GetView returns the cached view of an exam or ErrMiss.
func (c *ExamCache) GetView(ctx context.Context, examID string) (*model.ExamView, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ExamViewKey(examID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get view: %w", err)
	}

	var view model.ExamView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("decode view: %w", err)
	}
	return &view, nil
}

// SetView caches the view of an exam for the configured TTL.
func (c *ExamCache) SetView(ctx context.Context, view *model.ExamView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamViewKey(view.ID.String()), raw, c.ttl).Err()
}

// DeleteView drops the cached view of an exam.
func (c *ExamCache) DeleteView(ctx context.Context, examID string) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamViewKey(examID)).Err()
}

// PublishStatus announces a status change to readiness stream listeners.
func (c *ExamCache) PublishStatus(ctx context.Context, examID string, status model.ExamStatus) error {
	raw, err := json.Marshal(StatusEvent{ExamID: examID, Status: status, Ready: status.Ready()})
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, config.CacheKey.ExamStatusChannel(examID), raw).Err()
}

// SubscribeStatus listens for status changes of one exam. The caller must Close the subscription.
func (c *ExamCache) SubscribeStatus(ctx context.Context, examID string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, config.CacheKey.ExamStatusChannel(examID))
}
