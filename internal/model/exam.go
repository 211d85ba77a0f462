package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam.
type ExamStatus string

const (
	ExamStatusPending ExamStatus = "PENDING"
	ExamStatusReady   ExamStatus = "READY"
	ExamStatusScored  ExamStatus = "SCORED"
	ExamStatusFailed  ExamStatus = "FAILED"
)

// Ready reports whether questions have been generated for the exam.
func (s ExamStatus) Ready() bool {
	return s == ExamStatusReady || s == ExamStatusScored
}

// MCQQuestion is a generated multiple choice question.
type MCQQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Answer        string   `json:"answer"`
	AIExplanation string   `json:"ai_explanation,omitempty"`
}

// TrueFalseQuestion is a generated true/false statement.
type TrueFalseQuestion struct {
	Question    string `json:"question"`
	Answer      bool   `json:"answer"`
	Explanation string `json:"explanation"`
}

// ShortAnswerQuestion is a generated open question with an optional reference answer.
type ShortAnswerQuestion struct {
	Question    string `json:"question"`
	ModelAnswer string `json:"modelAnswer,omitempty"`
}

// Exam is the question-bank record: generation parameters, generated questions and
// the outcome of a scored submission.
type Exam struct {
	ID               uuid.UUID             `json:"id"`
	Topics           []string              `json:"topics"`
	MCQCount         int                   `json:"mcqCount"`
	TrueFalseCount   int                   `json:"trueFalseCount"`
	ShortAnswerCount int                   `json:"shortAnswerCount"`
	AdditionalInfo   *string               `json:"additionalInfo"`
	UserID           string                `json:"user_id"`
	SubjectID        string                `json:"subject_id"`
	Title            *string               `json:"title"`
	MCQ              []MCQQuestion         `json:"mcq"`
	TrueFalse        []TrueFalseQuestion   `json:"true_false"`
	ShortAnswer      []ShortAnswerQuestion `json:"short_answer"`
	Feedback         *string               `json:"feedback"`
	Status           ExamStatus            `json:"status"`
	ExamReady        bool                  `json:"exam_ready"`
	Result           *float64              `json:"result"`
	Evaluated        bool                  `json:"evaluated"`
	Submission       *Submission           `json:"submission"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// CreateExamRequest is the payload for requesting a new generated exam.
// Counts are pointers so a missing count fails the required rule while zero passes.
type CreateExamRequest struct {
	SelectedTopics   []string `json:"selectedTopics" binding:"required"`
	MCQCount         *int     `json:"mcqCount" binding:"required,min=0"`
	TrueFalseCount   *int     `json:"trueFalseCount" binding:"required,min=0"`
	ShortAnswerCount *int     `json:"shortAnswerCount" binding:"required,min=0"`
	AdditionalInfo   string   `json:"additionalInfo" binding:"omitempty,max=2000"`
	SubjectID        string   `json:"subject_id" binding:"required,notblank,max=128"`
	UserID           string   `json:"user_id" binding:"required,notblank,max=128"`
}

// ExamView is the client-facing shape of an exam used to render and take it.
type ExamView struct {
	ID          uuid.UUID             `json:"id"`
	UserID      string                `json:"user_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	MCQ         []MCQQuestion         `json:"mcq"`
	ShortAnswer []ShortAnswerQuestion `json:"short_answer"`
	TrueFalse   []TrueFalseQuestion   `json:"true_false"`
	Feedback    string                `json:"feedback"`
	Status      ExamStatus            `json:"status"`
}

// ExamSummary is a list entry without question bodies.
type ExamSummary struct {
	ID               uuid.UUID  `json:"id"`
	Title            *string    `json:"title"`
	SubjectID        string     `json:"subject_id"`
	Topics           []string   `json:"topics"`
	MCQCount         int        `json:"mcqCount"`
	TrueFalseCount   int        `json:"trueFalseCount"`
	ShortAnswerCount int        `json:"shortAnswerCount"`
	Status           ExamStatus `json:"status"`
	ExamReady        bool       `json:"exam_ready"`
	Result           *float64   `json:"result"`
	Evaluated        bool       `json:"evaluated"`
	CreatedAt        time.Time  `json:"created_at"`
}
