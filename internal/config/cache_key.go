package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamViewKey returns the cache key for an exam's client-facing view.
func (r *CacheKeyStruct) ExamViewKey(examID string) string {
	return fmt.Sprintf("exam:%s:view", examID)
}

// ExamStatusChannel returns the Redis PubSub channel that carries status changes for an exam.
func (r *CacheKeyStruct) ExamStatusChannel(examID string) string {
	return fmt.Sprintf("exam:%s:status", examID)
}

// RateLimitKey returns the fixed-window counter key for a client on a route.
func (r *CacheKeyStruct) RateLimitKey(route, client string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", route, client, window)
}

var CacheKey = NewCacheKeyStruct()
