package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prajna-app/prajna-backend/internal/model"
)

const examColumns = `id, topics, mcq_count, true_false_count, short_answer_count,
	additional_info, user_id, subject_id, title, mcq, true_false, short_answer,
	feedback, status, result, evaluated, submission, created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam and fills in the generated id and timestamps.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	topics, err := marshalList(e.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO exams (topics, mcq_count, true_false_count, short_answer_count,
		                    additional_info, user_id, subject_id, status, evaluated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		 RETURNING id, created_at, updated_at`,
		topics, e.MCQCount, e.TrueFalseCount, e.ShortAnswerCount,
		e.AdditionalInfo, e.UserID, e.SubjectID, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	e, err := scanExam(row)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// ListByUser returns a user's exams newest first. An empty subjectID lists every subject.
func (r *ExamRepository) ListByUser(ctx context.Context, userID, subjectID string) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE user_id = $1`
	args := []interface{}{userID}
	if subjectID != "" {
		query += ` AND subject_id = $2`
		args = append(args, subjectID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// SaveQuestions stores generated questions and moves the exam from PENDING to READY.
// Returns ErrConflict if the exam is no longer PENDING.
func (r *ExamRepository) SaveQuestions(ctx context.Context, id uuid.UUID, title string, mcq []model.MCQQuestion, tf []model.TrueFalseQuestion, sa []model.ShortAnswerQuestion) error {
	mcqJSON, err := marshalList(mcq)
	if err != nil {
		return fmt.Errorf("marshal mcq: %w", err)
	}
	tfJSON, err := marshalList(tf)
	if err != nil {
		return fmt.Errorf("marshal true_false: %w", err)
	}
	saJSON, err := marshalList(sa)
	if err != nil {
		return fmt.Errorf("marshal short_answer: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, mcq = $2, true_false = $3, short_answer = $4,
		     status = $5, updated_at = NOW()
		 WHERE id = $6 AND status = $7`,
		title, mcqJSON, tfJSON, saJSON, model.ExamStatusReady, id, model.ExamStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// MarkFailed moves a PENDING exam to FAILED after question generation gave up.
func (r *ExamRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, model.ExamStatusPending, model.ExamStatusFailed)
}

// ResetToPending moves a FAILED exam back to PENDING so it can be generated again.
func (r *ExamRepository) ResetToPending(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, model.ExamStatusFailed, model.ExamStatusPending)
}

// SaveEvaluation persists a scored submission and moves the exam from READY to SCORED
// in a single conditional update. Returns ErrConflict if the exam was not READY.
func (r *ExamRepository) SaveEvaluation(ctx context.Context, id uuid.UUID, result float64, submission *model.Submission) error {
	raw, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET result = $1, evaluated = TRUE, submission = $2, status = $3, updated_at = NOW()
		 WHERE id = $4 AND status = $5`,
		result, raw, model.ExamStatusScored, id, model.ExamStatusReady)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ExamRepository) transition(ctx context.Context, id uuid.UUID, from, to model.ExamStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// ─── Scanning ─────────────────────────────────────────────────────────

func scanExam(row pgx.Row) (*model.Exam, error) {
	var (
		e                               model.Exam
		topics, mcq, tf, sa, submission []byte
	)
	if err := row.Scan(&e.ID, &topics, &e.MCQCount, &e.TrueFalseCount, &e.ShortAnswerCount,
		&e.AdditionalInfo, &e.UserID, &e.SubjectID, &e.Title, &mcq, &tf, &sa,
		&e.Feedback, &e.Status, &e.Result, &e.Evaluated, &submission, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	if err := unmarshalIfSet(topics, &e.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if err := unmarshalIfSet(mcq, &e.MCQ); err != nil {
		return nil, fmt.Errorf("decode mcq: %w", err)
	}
	if err := unmarshalIfSet(tf, &e.TrueFalse); err != nil {
		return nil, fmt.Errorf("decode true_false: %w", err)
	}
	if err := unmarshalIfSet(sa, &e.ShortAnswer); err != nil {
		return nil, fmt.Errorf("decode short_answer: %w", err)
	}
	if len(submission) > 0 {
		e.Submission = &model.Submission{}
		if err := json.Unmarshal(submission, e.Submission); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
	}

	e.ExamReady = e.Status.Ready()
	return &e, nil
}

func unmarshalIfSet(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// marshalList encodes a slice as a JSON array, writing [] for nil.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
