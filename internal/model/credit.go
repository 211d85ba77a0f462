package model

import "time"

// Credit is a user's balance of exam-generation credits.
type Credit struct {
	UserID    string    `json:"user_id"`
	Credit    int       `json:"credit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCreditRequest is the payload for opening a credit balance.
// A missing or zero credit falls back to the configured default.
type CreateCreditRequest struct {
	Credit *int `json:"credit" binding:"omitempty,min=0"`
}

// UpdateCreditRequest is the payload for setting a credit balance.
type UpdateCreditRequest struct {
	Credit *int `json:"credit" binding:"required,min=0"`
}

// CreditCheck is the answer of the credits gate.
type CreditCheck struct {
	UserID     string `json:"user_id"`
	Credit     int    `json:"credit"`
	Required   int    `json:"required"`
	Sufficient bool   `json:"sufficient"`
}
