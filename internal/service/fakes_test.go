package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/rs/zerolog"
)

var testLog = zerolog.New(io.Discard)

// ─── Exam store ───────────────────────────────────────────────────────

type fakeExamStore struct {
	mu        sync.Mutex
	exams     map[uuid.UUID]*model.Exam
	createErr error
	getErr    error
	saveErr   error
	saves     int
	creates   int
}

func newFakeExamStore(exams ...*model.Exam) *fakeExamStore {
	s := &fakeExamStore{exams: make(map[uuid.UUID]*model.Exam)}
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.exams[e.ID] = &cp
	return nil
}

func (s *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	cp.ExamReady = cp.Status.Ready()
	return &cp, nil
}

func (s *fakeExamStore) ListByUser(_ context.Context, userID, subjectID string) ([]model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Exam
	for _, e := range s.exams {
		if e.UserID != userID || (subjectID != "" && e.SubjectID != subjectID) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeExamStore) ResetToPending(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[id]
	if !ok || e.Status != model.ExamStatusFailed {
		return repository.ErrConflict
	}
	e.Status = model.ExamStatusPending
	return nil
}

func (s *fakeExamStore) SaveEvaluation(_ context.Context, id uuid.UUID, result float64, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	e, ok := s.exams[id]
	if !ok || e.Status != model.ExamStatusReady {
		return repository.ErrConflict
	}
	e.Result = &result
	e.Evaluated = true
	e.Submission = sub
	e.Status = model.ExamStatusScored
	return nil
}

func (s *fakeExamStore) get(id uuid.UUID) *model.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exams[id]
}

// ─── Cache and queue ──────────────────────────────────────────────────

type fakeCache struct {
	mu        sync.Mutex
	views     map[string]*model.ExamView
	published []model.ExamStatus
	sets      int
	deletes   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{views: make(map[string]*model.ExamView)}
}

func (c *fakeCache) GetView(_ context.Context, examID string) (*model.ExamView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[examID]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *fakeCache) SetView(_ context.Context, view *model.ExamView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.views[view.ID.String()] = view
	return nil
}

func (c *fakeCache) DeleteView(_ context.Context, examID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.views, examID)
	return nil
}

func (c *fakeCache) PublishStatus(_ context.Context, _ string, status model.ExamStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, status)
	return nil
}

var errCacheMiss = errors.New("cache miss")

type fakeQueue struct {
	mu   sync.Mutex
	jobs []uuid.UUID
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, id)
	return nil
}

// ─── Evaluator ────────────────────────────────────────────────────────

type evalFunc func(ctx context.Context, in ai.ShortAnswerInput) (*ai.ShortAnswerEvaluation, error)

type fakeEvaluator struct {
	mu     sync.Mutex
	calls  []ai.ShortAnswerInput
	answer evalFunc
}

func (f *fakeEvaluator) EvaluateShortAnswer(ctx context.Context, in ai.ShortAnswerInput) (*ai.ShortAnswerEvaluation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	return f.answer(ctx, in)
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fixedScore(score float64) evalFunc {
	return func(context.Context, ai.ShortAnswerInput) (*ai.ShortAnswerEvaluation, error) {
		return &ai.ShortAnswerEvaluation{Score: score, Explanation: "ok"}, nil
	}
}

// ─── Credit store ─────────────────────────────────────────────────────

type fakeCreditStore struct {
	mu      sync.Mutex
	credits map[string]*model.Credit
}

func newFakeCreditStore(credits ...model.Credit) *fakeCreditStore {
	s := &fakeCreditStore{credits: make(map[string]*model.Credit)}
	for i := range credits {
		c := credits[i]
		s.credits[c.UserID] = &c
	}
	return s
}

func (s *fakeCreditStore) GetByUser(_ context.Context, userID string) (*model.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeCreditStore) Create(_ context.Context, c *model.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[c.UserID]; ok {
		return repository.ErrConflict
	}
	cp := *c
	s.credits[c.UserID] = &cp
	return nil
}

func (s *fakeCreditStore) Update(_ context.Context, userID string, credit int) (*model.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Credit = credit
	cp := *c
	return &cp, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func readyExam() *model.Exam {
	return &model.Exam{
		ID:        uuid.New(),
		UserID:    "user-1",
		SubjectID: "subject-1",
		Title:     strPtr("Photosynthesis"),
		MCQ: []model.MCQQuestion{
			{Question: "Where does photosynthesis happen?", Options: []string{"Chloroplast", "Nucleus"}, Answer: "Chloroplast"},
		},
		TrueFalse: []model.TrueFalseQuestion{
			{Question: "Plants need light.", Answer: true, Explanation: "Light drives the reaction."},
		},
		ShortAnswer: []model.ShortAnswerQuestion{
			{Question: "Define photosynthesis.", ModelAnswer: "Conversion of light into chemical energy."},
		},
		Status:    model.ExamStatusReady,
		CreatedAt: time.Now(),
	}
}
