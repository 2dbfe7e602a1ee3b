// Package repository implements persistence for books and reservations.
// PostgresStore uses pgx directly (no ORM); MemoryStore backs tests and
// local runs without a database.
package repository

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/library-lending/internal/ledger"
	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

// Tx is the unit of work handed to Store.WithTx. Everything done through it
// commits together or not at all.
type Tx interface {
	ledger.Rows

	// LockUser serialises concurrent transactions of the same user so the
	// active-reservation count cannot be raced.
	LockUser(ctx context.Context, userID string) error
	CountActiveByUser(ctx context.Context, userID string) (int, error)

	InsertReservation(ctx context.Context, r *model.Reservation) error
	// GetReservationForUpdate returns model.ErrReservationNotFound when missing.
	GetReservationForUpdate(ctx context.Context, id string) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, r *model.Reservation) error
}

// Store is a transactional book and reservation store.
type Store interface {
	// WithTx runs fn in a transaction, committing only when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// ListByUser returns all of a user's reservations, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	// GetBook returns model.ErrBookNotFound when missing.
	GetBook(ctx context.Context, bookID string) (*model.Book, error)
	// MarkOverdue persists OVERDUE for ACTIVE reservations due before now.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}
