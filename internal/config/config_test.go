package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EVAL_TIMEOUT_SECONDS", "12")
	t.Setenv("EVAL_CONCURRENCY", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	if cfg.EvalTimeout != 12*time.Second {
		t.Errorf("EvalTimeout = %v, want 12s", cfg.EvalTimeout)
	}
	if cfg.EvalConcurrency != 4 {
		t.Errorf("EvalConcurrency = %d, want fallback 4", cfg.EvalConcurrency)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.ExamCreditCost != 15 || cfg.DefaultCredits != 50 {
		t.Errorf("credits = %d/%d, want 15/50", cfg.ExamCreditCost, cfg.DefaultCredits)
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{CacheKey.ExamViewKey("e1"), "exam:e1:view"},
		{CacheKey.ExamStatusChannel("e1"), "exam:e1:status"},
		{CacheKey.RateLimitKey("ai", "user-1", 42), "ratelimit:ai:user-1:42"},
		{WorkerKey.ExamGenerationQueue, "exam_generation_queue"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}
