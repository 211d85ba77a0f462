package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ExamService handles exam creation, retrieval and regeneration.
type ExamService struct {
	exams ExamStore
	cache ViewCache
	queue GenerationQueue
	log   zerolog.Logger
}

// NewExamService creates a new ExamService. cache and queue may be nil.
func NewExamService(exams ExamStore, cache ViewCache, queue GenerationQueue, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		cache: cache,
		queue: queue,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// Create stores a new PENDING exam and schedules question generation.
// Credits are not checked here; the client consults the credits gate first.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	userID := strings.TrimSpace(req.UserID)
	subjectID := strings.TrimSpace(req.SubjectID)
	if userID == "" {
		return nil, newValidationError(ErrMissingField, "user_id", "user_id is a required field")
	}
	if subjectID == "" {
		return nil, newValidationError(ErrMissingField, "subject_id", "subject_id is a required field")
	}

	counts := []struct {
		name  string
		value *int
	}{
		{"mcqCount", req.MCQCount},
		{"trueFalseCount", req.TrueFalseCount},
		{"shortAnswerCount", req.ShortAnswerCount},
	}
	fields := make(map[string]string)
	for _, c := range counts {
		switch {
		case c.value == nil:
			return nil, newValidationError(ErrMissingField, c.name, c.name+" is a required field")
		case *c.value < 0:
			fields[c.name] = c.name + " must be 0 or greater"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Err: ErrInvalidCount, Fields: fields}
	}

	topics := req.SelectedTopics
	if topics == nil {
		topics = []string{}
	}

	exam := &model.Exam{
		Topics:           topics,
		MCQCount:         *req.MCQCount,
		TrueFalseCount:   *req.TrueFalseCount,
		ShortAnswerCount: *req.ShortAnswerCount,
		UserID:           userID,
		SubjectID:        subjectID,
		MCQ:              []model.MCQQuestion{},
		TrueFalse:        []model.TrueFalseQuestion{},
		ShortAnswer:      []model.ShortAnswerQuestion{},
		Status:           model.ExamStatusPending,
	}
	if info := strings.TrimSpace(req.AdditionalInfo); info != "" {
		exam.AdditionalInfo = &info
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("%w: create exam: %v", ErrPersistence, err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("user_id", exam.UserID).
		Int("mcq", exam.MCQCount).
		Int("true_false", exam.TrueFalseCount).
		Int("short_answer", exam.ShortAnswerCount).
		Msg("Exam created")

	s.enqueue(ctx, exam.ID)
	return exam, nil
}

// GetView returns the client-facing view of an exam. A non-empty actorID must
// match the exam owner.
//
// Only SCORED views are cached; every other status can still change.
func (s *ExamService) GetView(ctx context.Context, rawID, actorID string) (*model.ExamView, error) {
	id, err := parseExamID(rawID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		view, err := s.cache.GetView(ctx, id.String())
		if err == nil && view.Status == model.ExamStatusScored {
			if !ownedBy(view.UserID, actorID) {
				return nil, ErrNotExamOwner
			}
			return view, nil
		}
		if err != nil {
			s.log.Debug().Err(err).Str("exam_id", id.String()).Msg("View cache miss")
		}
	}

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(exam.UserID, actorID) {
		return nil, ErrNotExamOwner
	}

	view := BuildView(exam)
	if s.cache != nil && exam.Status == model.ExamStatusScored {
		if err := s.cache.SetView(ctx, view); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to cache exam view")
		}
	}
	return view, nil
}

// ListByUser returns a user's exams newest first, optionally filtered by subject.
func (s *ExamService) ListByUser(ctx context.Context, userID, subjectID string) ([]model.ExamSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newValidationError(ErrMissingField, "userId", "userId is a required field")
	}

	exams, err := s.exams.ListByUser(ctx, userID, strings.TrimSpace(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	summaries := make([]model.ExamSummary, 0, len(exams))
	if err := copier.Copy(&summaries, &exams); err != nil {
		return nil, fmt.Errorf("map exam summaries: %w", err)
	}
	for i := range summaries {
		summaries[i].ExamReady = summaries[i].Status.Ready()
		if summaries[i].Topics == nil {
			summaries[i].Topics = []string{}
		}
	}
	return summaries, nil
}

// Regenerate moves a FAILED exam back to PENDING and schedules generation again.
func (s *ExamService) Regenerate(ctx context.Context, rawID, actorID string) (*model.Exam, error) {
	id, err := parseExamID(rawID)
	if err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(exam.UserID, actorID) {
		return nil, ErrNotExamOwner
	}
	if exam.Status != model.ExamStatusFailed {
		return nil, ErrExamNotFailed
	}

	if err := s.exams.ResetToPending(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrExamNotFailed
		}
		return nil, fmt.Errorf("%w: reset exam: %v", ErrPersistence, err)
	}
	exam.Status = model.ExamStatusPending
	exam.ExamReady = false

	if s.cache != nil {
		if err := s.cache.PublishStatus(ctx, id.String(), model.ExamStatusPending); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to publish status")
		}
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam regeneration requested")
	s.enqueue(ctx, id)
	return exam, nil
}

func (s *ExamService) getExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// enqueue schedules generation. A failure is only logged: the exam stays
// PENDING and can be picked up again through regeneration.
func (s *ExamService) enqueue(ctx context.Context, id uuid.UUID) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, id); err != nil {
		s.log.Error().Err(err).Str("exam_id", id.String()).Msg("Failed to enqueue question generation")
	}
}

// BuildView shapes an exam for rendering. Missing values become empty strings and lists.
func BuildView(e *model.Exam) *model.ExamView {
	view := &model.ExamView{
		ID:          e.ID,
		UserID:      e.UserID,
		MCQ:         e.MCQ,
		ShortAnswer: e.ShortAnswer,
		TrueFalse:   e.TrueFalse,
		Status:      e.Status,
	}
	if e.Title != nil {
		view.Title = *e.Title
	}
	if e.AdditionalInfo != nil {
		view.Description = *e.AdditionalInfo
	}
	if e.Feedback != nil {
		view.Feedback = *e.Feedback
	}
	if view.MCQ == nil {
		view.MCQ = []model.MCQQuestion{}
	}
	if view.ShortAnswer == nil {
		view.ShortAnswer = []model.ShortAnswerQuestion{}
	}
	if view.TrueFalse == nil {
		view.TrueFalse = []model.TrueFalseQuestion{}
	}
	return view
}

// ownedBy reports whether actorID may act on an exam of owner. An empty
// actorID means the caller is not authenticated per user.
func ownedBy(owner, actorID string) bool {
	return actorID == "" || owner == actorID
}

func parseExamID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, newValidationError(ErrMissingExamID, "exam_id", "exam_id is a required field")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, newValidationError(ErrInvalidExamID, "exam_id", "exam_id must be a valid UUID")
	}
	return id, nil
}
