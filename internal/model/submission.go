package model

// Submission is a user's answers to an exam. It is stored verbatim, with
// short-answer scores filled in, once the exam is scored.
type Submission struct {
	ExamID         string            `json:"exam_id"`
	SubmissionTime string            `json:"submission_time"`
	Answers        SubmissionAnswers `json:"answers"`
}

// SubmissionAnswers groups answers by question kind.
type SubmissionAnswers struct {
	MCQ         []MCQAnswer        `json:"mcq"`
	TrueFalse   []TrueFalseAnswer  `json:"true_false"`
	ShortAnswer []ShortAnswerEntry `json:"short_answer"`
}

// MCQAnswer is one multiple choice answer. A nil UserAnswer means unanswered.
type MCQAnswer struct {
	Question      string  `json:"question"`
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
}

// Correct reports an exact, case-sensitive match. Unanswered is never correct.
func (a MCQAnswer) Correct() bool {
	return a.UserAnswer != nil && *a.UserAnswer == a.CorrectAnswer
}

// TrueFalseAnswer is one true/false answer. A nil UserAnswer means unanswered.
type TrueFalseAnswer struct {
	Question      string `json:"question"`
	UserAnswer    *bool  `json:"user_answer"`
	CorrectAnswer bool   `json:"correct_answer"`
}

// Correct reports whether the answered value equals the key. Unanswered is never correct.
func (a TrueFalseAnswer) Correct() bool {
	return a.UserAnswer != nil && *a.UserAnswer == a.CorrectAnswer
}

// ShortAnswerEntry is one open answer. Score and Explanation are set during scoring.
type ShortAnswerEntry struct {
	Question    string   `json:"question"`
	UserAnswer  string   `json:"user_answer"`
	Score       *float64 `json:"score,omitempty"`
	ModelAnswer string   `json:"modelAnswer,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// ScoreDetails breaks the total down by question kind.
type ScoreDetails struct {
	MCQ         int     `json:"mcq"`
	TrueFalse   int     `json:"true_false"`
	ShortAnswer float64 `json:"short_answer"`
}

// EvaluationResult is returned to the client after scoring a submission.
type EvaluationResult struct {
	Success          bool         `json:"success"`
	ExamID           string       `json:"exam_id"`
	TotalScore       float64      `json:"total_score"`
	ScoreDetails     ScoreDetails `json:"score_details"`
	MaxPossibleScore int          `json:"max_possible_score"`
	Evaluated        bool         `json:"evaluated"`
	Message          string       `json:"message"`
}
