package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeExams struct {
	mu      sync.Mutex
	exam    *model.Exam
	saveErr error
	title   string
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exam == nil || f.exam.ID != id {
		return nil, repository.ErrNotFound
	}
	cp := *f.exam
	return &cp, nil
}

func (f *fakeExams) SaveQuestions(_ context.Context, _ uuid.UUID, title string, mcq []model.MCQQuestion, tf []model.TrueFalseQuestion, sa []model.ShortAnswerQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.exam.Status != model.ExamStatusPending {
		return repository.ErrConflict
	}
	f.title = title
	f.exam.MCQ, f.exam.TrueFalse, f.exam.ShortAnswer = mcq, tf, sa
	f.exam.Status = model.ExamStatusReady
	return nil
}

func (f *fakeExams) MarkFailed(_ context.Context, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exam.Status != model.ExamStatusPending {
		return repository.ErrConflict
	}
	f.exam.Status = model.ExamStatusFailed
	return nil
}

type fakeTopics struct {
	requested []string
}

func (f *fakeTopics) ListByIDs(_ context.Context, ids []string) ([]model.Topic, error) {
	f.requested = ids
	topics := make([]model.Topic, 0, len(ids))
	for _, id := range ids {
		topics = append(topics, model.Topic{ID: id, Title: "Topic " + id})
	}
	return topics, nil
}

type fakeGenerator struct {
	req ai.GenerationRequest
	out *ai.GeneratedExam
	err error
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, req ai.GenerationRequest) (*ai.GeneratedExam, error) {
	f.req = req
	return f.out, f.err
}

type fakeNotifier struct {
	statuses []model.ExamStatus
	deletes  int
}

func (f *fakeNotifier) DeleteView(context.Context, string) error {
	f.deletes++
	return nil
}

func (f *fakeNotifier) PublishStatus(_ context.Context, _ string, status model.ExamStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func pendingExam() *model.Exam {
	info := "Only chapter 1"
	return &model.Exam{
		ID:               uuid.New(),
		Topics:           []string{"t1", "t2"},
		MCQCount:         1,
		TrueFalseCount:   1,
		ShortAnswerCount: 1,
		AdditionalInfo:   &info,
		Status:           model.ExamStatusPending,
	}
}

func generatedExam() *ai.GeneratedExam {
	return &ai.GeneratedExam{
		Title:       "Cells",
		MCQ:         []model.MCQQuestion{{Question: "q", Options: []string{"a", "b"}, Answer: "a"}},
		TrueFalse:   []model.TrueFalseQuestion{{Question: "t", Answer: true, Explanation: "e"}},
		ShortAnswer: []model.ShortAnswerQuestion{{Question: "s", ModelAnswer: "m"}},
	}
}

func newTestWorker(exams *fakeExams, gen *fakeGenerator, notifier *fakeNotifier) (*GenerationWorker, *fakeTopics) {
	topics := &fakeTopics{}
	return NewGenerationWorker(nil, exams, topics, gen, notifier, zerolog.New(io.Discard)), topics
}

func TestProcess_GeneratesQuestions(t *testing.T) {
	exam := pendingExam()
	exams := &fakeExams{exam: exam}
	gen := &fakeGenerator{out: generatedExam()}
	notifier := &fakeNotifier{}
	w, topics := newTestWorker(exams, gen, notifier)

	if err := w.Process(context.Background(), exam.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if exam.Status != model.ExamStatusReady || exams.title != "Cells" {
		t.Errorf("status = %s title = %q", exam.Status, exams.title)
	}
	if len(exam.MCQ) != 1 || len(exam.TrueFalse) != 1 || len(exam.ShortAnswer) != 1 {
		t.Error("questions were not saved")
	}
	if len(topics.requested) != 2 || len(gen.req.Topics) != 2 {
		t.Errorf("topics requested = %v", topics.requested)
	}
	if gen.req.AdditionalInfo != "Only chapter 1" || gen.req.MCQCount != 1 {
		t.Errorf("generation request = %+v", gen.req)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != model.ExamStatusReady || notifier.deletes != 1 {
		t.Errorf("notifier = %+v", notifier)
	}
}

func TestProcess_DefaultTitle(t *testing.T) {
	exam := pendingExam()
	exams := &fakeExams{exam: exam}
	out := generatedExam()
	out.Title = "  "
	w, _ := newTestWorker(exams, &fakeGenerator{out: out}, &fakeNotifier{})

	if err := w.Process(context.Background(), exam.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if exams.title != defaultExamTitle {
		t.Errorf("title = %q, want %q", exams.title, defaultExamTitle)
	}
}

func TestProcess_GenerationFailureMarksFailed(t *testing.T) {
	exam := pendingExam()
	exams := &fakeExams{exam: exam}
	notifier := &fakeNotifier{}
	w, _ := newTestWorker(exams, &fakeGenerator{err: errors.New("model overloaded")}, notifier)

	if err := w.Process(context.Background(), exam.ID); err == nil {
		t.Fatal("expected error")
	}
	if exam.Status != model.ExamStatusFailed {
		t.Errorf("status = %s, want FAILED", exam.Status)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != model.ExamStatusFailed {
		t.Errorf("statuses = %v", notifier.statuses)
	}
}

func TestProcess_SaveFailureMarksFailed(t *testing.T) {
	exam := pendingExam()
	exams := &fakeExams{exam: exam, saveErr: errors.New("db down")}
	w, _ := newTestWorker(exams, &fakeGenerator{out: generatedExam()}, &fakeNotifier{})

	if err := w.Process(context.Background(), exam.ID); err == nil {
		t.Fatal("expected error")
	}
	if exam.Status != model.ExamStatusFailed {
		t.Errorf("status = %s, want FAILED", exam.Status)
	}
}

func TestProcess_SkipsNonPending(t *testing.T) {
	for _, status := range []model.ExamStatus{model.ExamStatusReady, model.ExamStatusScored, model.ExamStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			exam := pendingExam()
			exam.Status = status
			gen := &fakeGenerator{out: generatedExam()}
			notifier := &fakeNotifier{}
			w, _ := newTestWorker(&fakeExams{exam: exam}, gen, notifier)

			if err := w.Process(context.Background(), exam.ID); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if gen.req.MCQCount != 0 || len(notifier.statuses) != 0 {
				t.Error("non-pending exams must not be generated")
			}
			if exam.Status != status {
				t.Errorf("status changed to %s", exam.Status)
			}
		})
	}
}

func TestProcess_UnknownExam(t *testing.T) {
	w, _ := newTestWorker(&fakeExams{}, &fakeGenerator{}, nil)
	if err := w.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Process: %v", err)
	}
}

func TestRequeue_LogsFailure(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	var logs bytes.Buffer
	examID := uuid.NewString()
	w := NewGenerationWorker(rdb, &fakeExams{}, &fakeTopics{}, &fakeGenerator{}, &fakeNotifier{}, zerolog.New(&logs))

	if err := w.requeue(`{"exam_id":"`+examID+`"}`, examID); err == nil {
		t.Fatal("expected requeue to fail without redis")
	}
	out := logs.String()
	if !strings.Contains(out, "Failed to requeue interrupted job") || !strings.Contains(out, examID) {
		t.Errorf("log output = %q, want failure with exam id", out)
	}
}
