package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/model"
)

// ExamStore is the persistence the exam services need. Implemented by repository.ExamRepository.
type ExamStore interface {
	Create(ctx context.Context, e *model.Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListByUser(ctx context.Context, userID, subjectID string) ([]model.Exam, error)
	ResetToPending(ctx context.Context, id uuid.UUID) error
	SaveEvaluation(ctx context.Context, id uuid.UUID, result float64, submission *model.Submission) error
}

// ViewCache caches exam views and broadcasts status changes. Implemented by cache.ExamCache.
type ViewCache interface {
	GetView(ctx context.Context, examID string) (*model.ExamView, error)
	SetView(ctx context.Context, view *model.ExamView) error
	DeleteView(ctx context.Context, examID string) error
	PublishStatus(ctx context.Context, examID string, status model.ExamStatus) error
}

// GenerationQueue schedules question generation. Implemented by worker.GenerationQueue.
type GenerationQueue interface {
	Enqueue(ctx context.Context, examID uuid.UUID) error
}

// ShortAnswerEvaluator grades a single short answer. Implemented by ai.Client.
type ShortAnswerEvaluator interface {
	EvaluateShortAnswer(ctx context.Context, in ai.ShortAnswerInput) (*ai.ShortAnswerEvaluation, error)
}

// CreditStore is the persistence behind the credits gate. Implemented by repository.CreditRepository.
type CreditStore interface {
	GetByUser(ctx context.Context, userID string) (*model.Credit, error)
	Create(ctx context.Context, c *model.Credit) error
	Update(ctx context.Context, userID string, credit int) (*model.Credit, error)
}
