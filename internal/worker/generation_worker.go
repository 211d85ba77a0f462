package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	GenerationPollTimeout = 1 * time.Second
	GenerationJobTimeout  = 3 * time.Minute
	requeueTimeout        = 5 * time.Second

	defaultExamTitle = "Practice Exam"
)

// ExamWriter is the exam persistence the worker needs. Implemented by repository.ExamRepository.
type ExamWriter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	SaveQuestions(ctx context.Context, id uuid.UUID, title string, mcq []model.MCQQuestion, tf []model.TrueFalseQuestion, sa []model.ShortAnswerQuestion) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// TopicReader loads topic notes. Implemented by repository.TopicRepository.
type TopicReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.Topic, error)
}

// QuestionGenerator writes exam questions. Implemented by ai.Client.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req ai.GenerationRequest) (*ai.GeneratedExam, error)
}

// StatusNotifier announces lifecycle changes. Implemented by cache.ExamCache.
type StatusNotifier interface {
	DeleteView(ctx context.Context, examID string) error
	PublishStatus(ctx context.Context, examID string, status model.ExamStatus) error
}

// GenerationWorker consumes exam_generation_queue and fills PENDING exams with questions.
type GenerationWorker struct {
	rdb       *redis.Client
	exams     ExamWriter
	topics    TopicReader
	generator QuestionGenerator
	notifier  StatusNotifier
	log       zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(rdb *redis.Client, exams ExamWriter, topics TopicReader, generator QuestionGenerator, notifier StatusNotifier, log zerolog.Logger) *GenerationWorker {
	return &GenerationWorker{
		rdb:       rdb,
		exams:     exams,
		topics:    topics,
		generator: generator,
		notifier:  notifier,
		log:       log.With().Str("component", "generation_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GenerationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, GenerationPollTimeout, config.WorkerKey.ExamGenerationQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var job generationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid job payload")
		return
	}
	examID, err := uuid.Parse(job.ExamID)
	if err != nil {
		w.log.Error().Str("exam_id", job.ExamID).Msg("Invalid exam id in job")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, GenerationJobTimeout)
	defer cancel()

	if err := w.Process(jobCtx, examID); err != nil && ctx.Err() != nil {
		// Shutdown interrupted the job; put it back for the next run.
		w.log.Warn().Str("exam_id", job.ExamID).Msg("Job interrupted by shutdown, requeueing")
		_ = w.requeue(result[1], job.ExamID)
	}
}

// requeue pushes a job payload back onto the queue.
func (w *GenerationWorker) requeue(payload, examID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requeueTimeout)
	defer cancel()

	if err := w.rdb.RPush(ctx, config.WorkerKey.ExamGenerationQueue, payload).Err(); err != nil {
		w.log.Error().Err(err).Str("exam_id", examID).Msg("Failed to requeue interrupted job")
		return err
	}
	return nil
}

// Process generates questions for one exam. Exams that are not PENDING are skipped.
// A generation failure marks the exam FAILED; it can then be regenerated.
func (w *GenerationWorker) Process(ctx context.Context, examID uuid.UUID) error {
	jobLog := w.log.With().Str("exam_id", examID.String()).Logger()

	exam, err := w.exams.GetByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		jobLog.Warn().Msg("Exam disappeared before generation")
		return nil
	}
	if err != nil {
		jobLog.Error().Err(err).Msg("Failed to load exam")
		return err
	}
	if exam.Status != model.ExamStatusPending {
		jobLog.Debug().Str("status", string(exam.Status)).Msg("Exam is not pending, skipping")
		return nil
	}

	started := time.Now()
	generated, err := w.generate(ctx, exam)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return err
		}
		jobLog.Error().Err(err).Msg("Question generation failed")
		w.fail(ctx, jobLog, examID)
		return err
	}

	title := strings.TrimSpace(generated.Title)
	if title == "" {
		title = defaultExamTitle
	}

	err = w.exams.SaveQuestions(ctx, examID, title, generated.MCQ, generated.TrueFalse, generated.ShortAnswer)
	if errors.Is(err, repository.ErrConflict) {
		jobLog.Warn().Msg("Exam left PENDING during generation, discarding questions")
		return nil
	}
	if err != nil {
		jobLog.Error().Err(err).Msg("Failed to save questions")
		w.fail(ctx, jobLog, examID)
		return err
	}

	w.notify(ctx, jobLog, examID, model.ExamStatusReady)
	jobLog.Info().
		Int("mcq", len(generated.MCQ)).
		Int("true_false", len(generated.TrueFalse)).
		Int("short_answer", len(generated.ShortAnswer)).
		Dur("took", time.Since(started)).
		Msg("Exam questions generated")
	return nil
}

func (w *GenerationWorker) generate(ctx context.Context, exam *model.Exam) (*ai.GeneratedExam, error) {
	topics, err := w.topics.ListByIDs(ctx, exam.Topics)
	if err != nil {
		return nil, err
	}

	req := ai.GenerationRequest{
		Topics:           topics,
		MCQCount:         exam.MCQCount,
		TrueFalseCount:   exam.TrueFalseCount,
		ShortAnswerCount: exam.ShortAnswerCount,
	}
	if exam.AdditionalInfo != nil {
		req.AdditionalInfo = *exam.AdditionalInfo
	}
	return w.generator.GenerateQuestions(ctx, req)
}

func (w *GenerationWorker) fail(ctx context.Context, log zerolog.Logger, examID uuid.UUID) {
	// The job context may have expired; the status write gets its own deadline.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := w.exams.MarkFailed(failCtx, examID); err != nil && !errors.Is(err, repository.ErrConflict) {
		log.Error().Err(err).Msg("Failed to mark exam as failed")
		return
	}
	w.notify(failCtx, log, examID, model.ExamStatusFailed)
}

func (w *GenerationWorker) notify(ctx context.Context, log zerolog.Logger, examID uuid.UUID, status model.ExamStatus) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.DeleteView(ctx, examID.String()); err != nil {
		log.Warn().Err(err).Msg("Failed to drop cached view")
	}
	if err := w.notifier.PublishStatus(ctx, examID.String(), status); err != nil {
		log.Warn().Err(err).Msg("Failed to publish status")
	}
}
