package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository reads the blacklist flag owned by the identity service.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// IsBlacklisted reports the user's blacklist flag. Users the identity service
// has not synced yet are treated as not blacklisted.
func (r *UserRepository) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	var blacklisted bool
	err := r.db.QueryRow(ctx,
		`SELECT is_blacklisted FROM users WHERE id = $1`, userID,
	).Scan(&blacklisted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get blacklist flag: %w", err)
	}
	return blacklisted, nil
}
