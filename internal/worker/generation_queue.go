package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// generationJob is the payload pushed onto the generation queue.
type generationJob struct {
	ExamID     string    `json:"exam_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// GenerationQueue produces question generation jobs on a Redis list.
type GenerationQueue struct {
	rdb *redis.Client
}

// NewGenerationQueue creates a new GenerationQueue.
func NewGenerationQueue(rdb *redis.Client) *GenerationQueue {
	return &GenerationQueue{rdb: rdb}
}

// Enqueue schedules question generation for an exam.
func (q *GenerationQueue) Enqueue(ctx context.Context, examID uuid.UUID) error {
	raw, err := json.Marshal(generationJob{ExamID: examID.String(), EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.ExamGenerationQueue, raw).Err(); err != nil {
		return fmt.Errorf("push generation job: %w", err)
	}
	return nil
}

// Len returns the number of jobs waiting to be picked up.
func (q *GenerationQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, config.WorkerKey.ExamGenerationQueue).Result()
}
