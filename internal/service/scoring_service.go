package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxShortAnswerScore is the highest score a short answer can earn.
	MaxShortAnswerScore = 5.0
	// FallbackShortAnswerScore is awarded when the evaluator cannot produce a usable score.
	FallbackShortAnswerScore = 1.0

	evaluationMessage = "Exam evaluation completed successfully"
)

// ScoringOptions tunes short-answer evaluation.
type ScoringOptions struct {
	// Concurrency bounds in-flight evaluator calls per submission.
	Concurrency int
	// Timeout bounds a single evaluator call.
	Timeout time.Duration
}

// ScoringService scores submissions and records the outcome on the exam.
type ScoringService struct {
	exams     ExamStore
	cache     ViewCache
	evaluator ShortAnswerEvaluator
	opts      ScoringOptions
	log       zerolog.Logger
}

// NewScoringService creates a new ScoringService. cache may be nil.
func NewScoringService(exams ExamStore, cache ViewCache, evaluator ShortAnswerEvaluator, opts ScoringOptions, log zerolog.Logger) *ScoringService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ScoringService{
		exams:     exams,
		cache:     cache,
		evaluator: evaluator,
		opts:      opts,
		log:       log.With().Str("component", "scoring_service").Logger(),
	}
}

// ScoreSubmission grades a submission, fills in short-answer scores and
// stores result, submission and SCORED status on the exam.
//
// MCQ and true/false answers earn 1 point on an exact match. Short answers
// earn 0-5 from the evaluator; blank answers earn 0 without a call and a
// failed call earns FallbackShortAnswerScore. A non-empty actorID must match
// the exam owner.
func (s *ScoringService) ScoreSubmission(ctx context.Context, sub *model.Submission, actorID string) (*model.EvaluationResult, error) {
	if sub == nil {
		return nil, newValidationError(ErrMissingExamID, "exam_id", "exam_id is a required field")
	}
	id, err := parseExamID(sub.ExamID)
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !ownedBy(exam.UserID, actorID) {
		return nil, ErrNotExamOwner
	}

	switch exam.Status {
	case model.ExamStatusScored:
		return nil, ErrExamAlreadyScored
	case model.ExamStatusReady:
	default:
		return nil, ErrExamNotReady
	}

	examLog := s.log.With().Str("exam_id", id.String()).Logger()

	s.evaluateShortAnswers(ctx, examLog, sub.Answers.ShortAnswer)

	details := model.ScoreDetails{}
	for _, a := range sub.Answers.MCQ {
		if a.Correct() {
			details.MCQ++
		}
	}
	for _, a := range sub.Answers.TrueFalse {
		if a.Correct() {
			details.TrueFalse++
		}
	}
	for _, a := range sub.Answers.ShortAnswer {
		if a.Score != nil {
			details.ShortAnswer += *a.Score
		}
	}

	total := float64(details.MCQ+details.TrueFalse) + details.ShortAnswer
	maxScore := len(sub.Answers.MCQ) + len(sub.Answers.TrueFalse) + int(MaxShortAnswerScore)*len(sub.Answers.ShortAnswer)

	sub.ExamID = id.String()
	if err := s.exams.SaveEvaluation(ctx, id, total, sub); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrExamAlreadyScored
		}
		examLog.Error().Err(err).Msg("Failed to save evaluation")
		return nil, fmt.Errorf("%w: save evaluation: %v", ErrPersistence, err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteView(ctx, id.String()); err != nil {
			examLog.Warn().Err(err).Msg("Failed to drop cached view")
		}
		if err := s.cache.PublishStatus(ctx, id.String(), model.ExamStatusScored); err != nil {
			examLog.Warn().Err(err).Msg("Failed to publish status")
		}
	}

	examLog.Info().
		Float64("total_score", total).
		Int("max_possible_score", maxScore).
		Msg("Exam scored")

	return &model.EvaluationResult{
		Success:          true,
		ExamID:           id.String(),
		TotalScore:       total,
		ScoreDetails:     details,
		MaxPossibleScore: maxScore,
		Evaluated:        true,
		Message:          evaluationMessage,
	}, nil
}

// evaluateShortAnswers scores every entry in place. Calls run in parallel up
// to the configured limit and each result is written back at its own index.
func (s *ScoringService) evaluateShortAnswers(ctx context.Context, log zerolog.Logger, entries []model.ShortAnswerEntry) {
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for i := range entries {
		if strings.TrimSpace(entries[i].UserAnswer) == "" {
			entries[i].Score = scorePtr(0)
			continue
		}

		g.Go(func() error {
			score, explanation := s.evaluateOne(ctx, log, i, entries[i])
			entries[i].Score = scorePtr(score)
			entries[i].Explanation = explanation
			return nil
		})
	}
	_ = g.Wait()
}

func (s *ScoringService) evaluateOne(ctx context.Context, log zerolog.Logger, index int, entry model.ShortAnswerEntry) (float64, string) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	eval, err := s.evaluator.EvaluateShortAnswer(callCtx, ai.ShortAnswerInput{
		IdealAnswer: entry.ModelAnswer,
		Question:    entry.Question,
		Answer:      entry.UserAnswer,
	})
	if err != nil || eval == nil {
		log.Warn().Err(err).Int("index", index).Msg("Short answer evaluation failed, using fallback score")
		return FallbackShortAnswerScore, ""
	}
	if math.IsNaN(eval.Score) || math.IsInf(eval.Score, 0) {
		log.Warn().Int("index", index).Msg("Evaluator returned an unusable score, using fallback score")
		return FallbackShortAnswerScore, eval.Explanation
	}
	return clampScore(eval.Score), eval.Explanation
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(MaxShortAnswerScore, v))
}

func scorePtr(v float64) *float64 {
	return &v
}
