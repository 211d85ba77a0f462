package model

import (
	"encoding/json"
	"time"
)

// Topic is a unit of study material inside a subject. Exams are generated from topic notes.
type Topic struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	SubjectID      string          `json:"subject_id"`
	AdditionalInfo *string         `json:"additional_info"`
	Note           json.RawMessage `json:"note"`
	HaveNote       bool            `json:"have_note"`
	CreatedAt      time.Time       `json:"created_at"`
}
