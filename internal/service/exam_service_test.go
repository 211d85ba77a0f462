package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prajna-app/prajna-backend/internal/model"
)

func validCreateRequest() *model.CreateExamRequest {
	return &model.CreateExamRequest{
		SelectedTopics:   []string{"t1", "t2"},
		MCQCount:         intPtr(5),
		TrueFalseCount:   intPtr(5),
		ShortAnswerCount: intPtr(5),
		AdditionalInfo:   "Focus on chapter 2",
		SubjectID:        "subject-1",
		UserID:           "user-1",
	}
}

func TestExamService_Create(t *testing.T) {
	store := newFakeExamStore()
	queue := &fakeQueue{}
	svc := NewExamService(store, nil, queue, testLog)

	exam, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if exam.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
	if exam.Status != model.ExamStatusPending || exam.ExamReady || exam.Evaluated {
		t.Errorf("new exam state = %s ready=%v evaluated=%v", exam.Status, exam.ExamReady, exam.Evaluated)
	}
	if exam.MCQCount != 5 || exam.TrueFalseCount != 5 || exam.ShortAnswerCount != 5 {
		t.Errorf("counts = %d/%d/%d", exam.MCQCount, exam.TrueFalseCount, exam.ShortAnswerCount)
	}
	if !reflect.DeepEqual(exam.Topics, []string{"t1", "t2"}) {
		t.Errorf("topics = %v", exam.Topics)
	}
	if exam.AdditionalInfo == nil || *exam.AdditionalInfo != "Focus on chapter 2" {
		t.Errorf("additional info = %v", exam.AdditionalInfo)
	}
	if exam.MCQ == nil || exam.TrueFalse == nil || exam.ShortAnswer == nil {
		t.Error("question lists should be empty, not nil")
	}
	if len(queue.jobs) != 1 || queue.jobs[0] != exam.ID {
		t.Errorf("queued jobs = %v", queue.jobs)
	}
}

func TestExamService_Create_EmptyTopicsAndZeroCounts(t *testing.T) {
	svc := NewExamService(newFakeExamStore(), nil, nil, testLog)

	req := validCreateRequest()
	req.SelectedTopics = nil
	req.MCQCount = intPtr(0)
	req.AdditionalInfo = "   "

	exam, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exam.Topics == nil || len(exam.Topics) != 0 {
		t.Errorf("topics = %#v, want empty list", exam.Topics)
	}
	if exam.MCQCount != 0 {
		t.Errorf("mcq count = %d", exam.MCQCount)
	}
	if exam.AdditionalInfo != nil {
		t.Errorf("blank additional info should be stored as null, got %q", *exam.AdditionalInfo)
	}
}

func TestExamService_Create_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.CreateExamRequest)
		want   error
		field  string
	}{
		{"missing user", func(r *model.CreateExamRequest) { r.UserID = "" }, ErrMissingField, "user_id"},
		{"blank subject", func(r *model.CreateExamRequest) { r.SubjectID = "  " }, ErrMissingField, "subject_id"},
		{"missing count", func(r *model.CreateExamRequest) { r.TrueFalseCount = nil }, ErrMissingField, "trueFalseCount"},
		{"negative count", func(r *model.CreateExamRequest) { r.MCQCount = intPtr(-1) }, ErrInvalidCount, "mcqCount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeExamStore()
			queue := &fakeQueue{}
			svc := NewExamService(store, nil, queue, testLog)

			req := validCreateRequest()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Fields[tt.field] == "" {
				t.Errorf("expected field error for %s, got %v", tt.field, err)
			}
			if store.creates != 0 || len(queue.jobs) != 0 {
				t.Error("nothing may be written or queued for an invalid request")
			}
		})
	}
}

func TestExamService_Create_PersistenceFailure(t *testing.T) {
	store := newFakeExamStore()
	store.createErr = errors.New("db down")
	queue := &fakeQueue{}
	svc := NewExamService(store, nil, queue, testLog)

	_, err := svc.Create(context.Background(), validCreateRequest())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want a single attempt", store.creates)
	}
	if len(queue.jobs) != 0 {
		t.Error("no job may be queued when the write fails")
	}
}

func TestExamService_Create_QueueFailureIsNotFatal(t *testing.T) {
	svc := NewExamService(newFakeExamStore(), nil, &fakeQueue{err: errors.New("redis down")}, testLog)
	if _, err := svc.Create(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestExamService_GetView(t *testing.T) {
	exam := readyExam()
	exam.AdditionalInfo = strPtr("Chapter 2")
	exam.Feedback = strPtr("Good work")
	svc := NewExamService(newFakeExamStore(exam), nil, nil, testLog)

	view, err := svc.GetView(context.Background(), exam.ID.String(), "")
	if err != nil {
		t.Fatalf("GetView: %v", err)
	}
	want := &model.ExamView{
		ID:          exam.ID,
		UserID:      "user-1",
		Title:       "Photosynthesis",
		Description: "Chapter 2",
		MCQ:         exam.MCQ,
		ShortAnswer: exam.ShortAnswer,
		TrueFalse:   exam.TrueFalse,
		Feedback:    "Good work",
		Status:      model.ExamStatusReady,
	}
	if !reflect.DeepEqual(view, want) {
		t.Errorf("view = %+v\nwant %+v", view, want)
	}

	again, err := svc.GetView(context.Background(), exam.ID.String(), "")
	if err != nil || !reflect.DeepEqual(view, again) {
		t.Errorf("second read differs: %+v, %v", again, err)
	}
}

func TestExamService_GetView_Defaults(t *testing.T) {
	exam := &model.Exam{ID: uuid.New(), Status: model.ExamStatusPending, CreatedAt: time.Now()}
	svc := NewExamService(newFakeExamStore(exam), nil, nil, testLog)

	view, err := svc.GetView(context.Background(), exam.ID.String(), "")
	if err != nil {
		t.Fatalf("GetView: %v", err)
	}
	if view.Title != "" || view.Description != "" || view.Feedback != "" {
		t.Errorf("string defaults = %q %q %q", view.Title, view.Description, view.Feedback)
	}
	if view.MCQ == nil || view.TrueFalse == nil || view.ShortAnswer == nil {
		t.Error("missing question lists must render as empty lists")
	}
}

func TestExamService_GetView_Errors(t *testing.T) {
	svc := NewExamService(newFakeExamStore(), nil, nil, testLog)

	if _, err := svc.GetView(context.Background(), uuid.NewString(), ""); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown id err = %v, want ErrExamNotFound", err)
	}
	if _, err := svc.GetView(context.Background(), "abc", ""); !errors.Is(err, ErrInvalidExamID) {
		t.Errorf("malformed id err = %v, want ErrInvalidExamID", err)
	}
}

func TestExamService_GetView_Cache(t *testing.T) {
	ready := readyExam()
	scored := readyExam()
	scored.Status = model.ExamStatusScored
	cache := newFakeCache()
	svc := NewExamService(newFakeExamStore(ready, scored), cache, nil, testLog)

	if _, err := svc.GetView(context.Background(), ready.ID.String(), ""); err != nil {
		t.Fatalf("GetView ready: %v", err)
	}
	if cache.sets != 0 {
		t.Error("views of exams that can still change must not be cached")
	}

	if _, err := svc.GetView(context.Background(), scored.ID.String(), ""); err != nil {
		t.Fatalf("GetView scored: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}

	cache.views[scored.ID.String()] = &model.ExamView{ID: scored.ID, Title: "from cache", Status: model.ExamStatusScored}
	got, err := svc.GetView(context.Background(), scored.ID.String(), "")
	if err != nil || got.Title != "from cache" {
		t.Errorf("expected cached view, got %+v, %v", got, err)
	}

	// A stale non-final entry is ignored in favour of the row.
	cache.views[ready.ID.String()] = &model.ExamView{ID: ready.ID, Title: "stale", Status: model.ExamStatusPending}
	got, err = svc.GetView(context.Background(), ready.ID.String(), "")
	if err != nil || got.Status != model.ExamStatusReady || got.Title == "stale" {
		t.Errorf("expected row view, got %+v, %v", got, err)
	}
}

// scoreDuringRead runs onRead once after the row is loaded and before it is returned.
type scoreDuringRead struct {
	*fakeExamStore
	onRead func()
}

func (s *scoreDuringRead) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.fakeExamStore.GetByID(ctx, id)
	if hook := s.onRead; hook != nil {
		s.onRead = nil
		hook()
	}
	return e, err
}

func TestExamService_GetView_ScoredWhileReading(t *testing.T) {
	exam := readyExam()
	store := newFakeExamStore(exam)
	cache := newFakeCache()
	scoring := newScoring(store, &fakeEvaluator{answer: fixedScore(4)}, cache)
	reader := &scoreDuringRead{fakeExamStore: store}
	svc := NewExamService(reader, cache, nil, testLog)

	reader.onRead = func() {
		if _, err := scoring.ScoreSubmission(context.Background(), submissionFor(exam.ID.String()), ""); err != nil {
			t.Errorf("ScoreSubmission: %v", err)
		}
	}

	first, err := svc.GetView(context.Background(), exam.ID.String(), "")
	if err != nil {
		t.Fatalf("GetView: %v", err)
	}
	if first.Status != model.ExamStatusReady {
		t.Errorf("first read status = %s, want READY", first.Status)
	}

	second, err := svc.GetView(context.Background(), exam.ID.String(), "")
	if err != nil {
		t.Fatalf("GetView: %v", err)
	}
	if second.Status != model.ExamStatusScored {
		t.Errorf("second read status = %s, want SCORED (store has %s)", second.Status, store.get(exam.ID).Status)
	}
	if cached, ok := cache.views[exam.ID.String()]; !ok || cached.Status != model.ExamStatusScored {
		t.Errorf("cached view = %+v, want SCORED", cached)
	}
}

func TestExamService_OwnerCheck(t *testing.T) {
	failed := readyExam()
	failed.Status = model.ExamStatusFailed
	scored := readyExam()
	scored.Status = model.ExamStatusScored
	store := newFakeExamStore(failed, scored)
	cache := newFakeCache()
	svc := NewExamService(store, cache, nil, testLog)
	ctx := context.Background()

	if _, err := svc.GetView(ctx, failed.ID.String(), "user-2"); !errors.Is(err, ErrNotExamOwner) {
		t.Errorf("GetView by other user err = %v, want ErrNotExamOwner", err)
	}
	if _, err := svc.GetView(ctx, failed.ID.String(), "user-1"); err != nil {
		t.Errorf("GetView by owner: %v", err)
	}

	// Served from cache on the second read.
	if _, err := svc.GetView(ctx, scored.ID.String(), "user-1"); err != nil {
		t.Fatalf("GetView scored: %v", err)
	}
	if _, err := svc.GetView(ctx, scored.ID.String(), "user-2"); !errors.Is(err, ErrNotExamOwner) {
		t.Errorf("cached GetView by other user err = %v, want ErrNotExamOwner", err)
	}

	if _, err := svc.Regenerate(ctx, failed.ID.String(), "user-2"); !errors.Is(err, ErrNotExamOwner) {
		t.Errorf("Regenerate by other user err = %v, want ErrNotExamOwner", err)
	}
	if store.get(failed.ID).Status != model.ExamStatusFailed {
		t.Error("rejected regeneration must not reset the exam")
	}
}

func TestExamService_ListByUser(t *testing.T) {
	older := readyExam()
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := readyExam()
	newer.Status = model.ExamStatusScored
	other := readyExam()
	other.SubjectID = "subject-2"
	other.CreatedAt = time.Now().Add(-2 * time.Hour)
	foreign := readyExam()
	foreign.UserID = "user-2"

	svc := NewExamService(newFakeExamStore(older, newer, other, foreign), nil, nil, testLog)

	all, err := svc.ListByUser(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 3 || all[0].ID != newer.ID || all[2].ID != other.ID {
		t.Fatalf("unexpected order: %+v", all)
	}
	if !all[0].ExamReady || all[0].Title == nil || *all[0].Title != "Photosynthesis" {
		t.Errorf("summary not mapped: %+v", all[0])
	}

	bySubject, err := svc.ListByUser(context.Background(), "user-1", "subject-2")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(bySubject) != 1 || bySubject[0].ID != other.ID {
		t.Errorf("subject filter = %+v", bySubject)
	}

	if _, err := svc.ListByUser(context.Background(), " ", ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestExamService_Regenerate(t *testing.T) {
	failed := readyExam()
	failed.Status = model.ExamStatusFailed
	ready := readyExam()
	store := newFakeExamStore(failed, ready)
	queue := &fakeQueue{}
	cache := newFakeCache()
	svc := NewExamService(store, cache, queue, testLog)

	exam, err := svc.Regenerate(context.Background(), failed.ID.String(), "")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if exam.Status != model.ExamStatusPending || store.get(failed.ID).Status != model.ExamStatusPending {
		t.Errorf("status = %s", exam.Status)
	}
	if len(queue.jobs) != 1 || queue.jobs[0] != failed.ID {
		t.Errorf("jobs = %v", queue.jobs)
	}
	if len(cache.published) != 1 || cache.published[0] != model.ExamStatusPending {
		t.Errorf("published = %v", cache.published)
	}

	if _, err := svc.Regenerate(context.Background(), ready.ID.String(), ""); !errors.Is(err, ErrExamNotFailed) {
		t.Errorf("ready exam err = %v, want ErrExamNotFailed", err)
	}
	if _, err := svc.Regenerate(context.Background(), uuid.NewString(), ""); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown exam err = %v, want ErrExamNotFound", err)
	}
}
