package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/rs/zerolog"
)

// CreditService manages credit balances and answers the credits gate.
// The exam services never consult it; clients call the gate before creating an exam.
type CreditService struct {
	credits        CreditStore
	examCost       int
	defaultCredits int
	log            zerolog.Logger
}

// NewCreditService creates a new CreditService.
func NewCreditService(credits CreditStore, examCost, defaultCredits int, log zerolog.Logger) *CreditService {
	return &CreditService{
		credits:        credits,
		examCost:       examCost,
		defaultCredits: defaultCredits,
		log:            log.With().Str("component", "credit_service").Logger(),
	}
}

// Get returns the balance of a user.
func (s *CreditService) Get(ctx context.Context, userID string) (*model.Credit, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	c, err := s.credits.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCreditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credit: %w", err)
	}
	return c, nil
}

// Create opens a balance for a user. A missing or zero amount uses the default.
func (s *CreditService) Create(ctx context.Context, userID string, amount *int) (*model.Credit, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	c := &model.Credit{UserID: userID, Credit: s.defaultCredits}
	if amount != nil && *amount > 0 {
		c.Credit = *amount
	}

	if err := s.credits.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCreditExists
		}
		return nil, fmt.Errorf("%w: create credit: %v", ErrPersistence, err)
	}

	s.log.Info().Str("user_id", userID).Int("credit", c.Credit).Msg("Credit balance opened")
	return c, nil
}

// Update sets the balance of a user.
func (s *CreditService) Update(ctx context.Context, userID string, amount *int) (*model.Credit, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, newValidationError(ErrMissingField, "credit", "credit is a required field")
	}
	if *amount < 0 {
		return nil, newValidationError(ErrInvalidCount, "credit", "credit must be 0 or greater")
	}

	c, err := s.credits.Update(ctx, userID, *amount)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCreditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update credit: %v", ErrPersistence, err)
	}
	return c, nil
}

// HasSufficientCredits reports whether a user can afford an exam.
// A user without a balance row has no credits.
func (s *CreditService) HasSufficientCredits(ctx context.Context, userID string) (*model.CreditCheck, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	check := &model.CreditCheck{UserID: userID, Required: s.examCost}
	c, err := s.credits.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("get credit: %w", err)
	default:
		check.Credit = c.Credit
	}
	check.Sufficient = check.Credit >= check.Required
	return check, nil
}

func requireUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", newValidationError(ErrMissingField, "user_id", "user_id is a required field")
	}
	return userID, nil
}
