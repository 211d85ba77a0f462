package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prajna-app/prajna-backend/internal/model"
)

// CreditRepository handles credit balance data access.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// GetByUser retrieves the credit balance of a user.
func (r *CreditRepository) GetByUser(ctx context.Context, userID string) (*model.Credit, error) {
	c := &model.Credit{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, credit, created_at, updated_at FROM credits WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &c.Credit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// Create opens a credit balance. Returns ErrConflict if the user already has one.
func (r *CreditRepository) Create(ctx context.Context, c *model.Credit) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO credits (user_id, credit) VALUES ($1, $2)
		 RETURNING created_at, updated_at`,
		c.UserID, c.Credit,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

// Update sets the credit balance of a user and returns the stored row.
func (r *CreditRepository) Update(ctx context.Context, userID string, credit int) (*model.Credit, error) {
	c := &model.Credit{}
	err := r.pool.QueryRow(ctx,
		`UPDATE credits SET credit = $1, updated_at = NOW() WHERE user_id = $2
		 RETURNING user_id, credit, created_at, updated_at`,
		credit, userID,
	).Scan(&c.UserID, &c.Credit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// Add changes a balance by delta, creating it from base when missing.
// Used by the grant-credits command.
func (r *CreditRepository) Add(ctx context.Context, userID string, base, delta int) (*model.Credit, error) {
	c := &model.Credit{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO credits (user_id, credit) VALUES ($1, GREATEST($2 + $3, 0))
		 ON CONFLICT (user_id) DO UPDATE
		 SET credit = GREATEST(credits.credit + $3, 0), updated_at = NOW()
		 RETURNING user_id, credit, created_at, updated_at`,
		userID, base, delta,
	).Scan(&c.UserID, &c.Credit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}
