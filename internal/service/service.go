// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/library-lending/internal/ledger"
	"github.com/Shivanand-hulikatti/library-lending/internal/model"
	"github.com/Shivanand-hulikatti/library-lending/internal/policy"
	"github.com/Shivanand-hulikatti/library-lending/internal/repository"
	"github.com/Shivanand-hulikatti/library-lending/internal/reservation"
)

// BlacklistChecker answers whether a user is barred from reserving.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
}

// EventPublisher receives an event after each committed state change.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
}

// Option customises a ReservationService.
type Option func(*ReservationService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

// WithPublisher sets where committed changes are announced.
func WithPublisher(p EventPublisher) Option {
	return func(s *ReservationService) { s.events = p }
}

// ReservationService orchestrates the inventory ledger and the reservation
// state machine inside store transactions.
type ReservationService struct {
	store     repository.Store
	blacklist BlacklistChecker
	events    EventPublisher
	policy    policy.Policy
	now       func() time.Time
}

// NewReservationService constructs a ReservationService with its dependencies.
func NewReservationService(
	store repository.Store,
	blacklist BlacklistChecker,
	p policy.Policy,
	opts ...Option,
) *ReservationService {
	s := &ReservationService{
		store:     store,
		blacklist: blacklist,
		policy:    p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve takes one copy of the book for userID and records an ACTIVE
// reservation. The copy is taken and the reservation stored in the same
// transaction, so a failed insert never leaves a copy missing.
func (s *ReservationService) Reserve(ctx context.Context, userID, bookID string, days int) (*model.Reservation, error) {
	if userID == "" || bookID == "" {
		return nil, model.ErrMissingID
	}
	if !policy.ValidPeriod(days) {
		return nil, model.ErrInvalidReservationPeriod
	}

	// Checked before the transaction so no lock is held across the lookup.
	blacklisted, err := s.blacklist.IsBlacklisted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if blacklisted {
		return nil, model.ErrUserBlacklisted
	}

	now := s.now()
	var created *model.Reservation
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if s.policy.MaxActiveReservations > 0 {
			if err := tx.LockUser(ctx, userID); err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			active, err := tx.CountActiveByUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("count active reservations: %w", err)
			}
			if !s.policy.UnderActiveLimit(active) {
				return model.ErrTooManyActiveReservations
			}
		}

		if err := ledger.New(tx).TryTake(ctx, bookID); err != nil {
			return err
		}

		r, err := reservation.Create(bookID, userID, days, now)
		if err != nil {
			return err
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventReserved, created, now)
	return created, nil
}

// Renew extends the caller's ACTIVE reservation by its original period.
func (s *ReservationService) Renew(ctx context.Context, userID, reservationID string) (*model.Reservation, error) {
	now := s.now()
	r, err := s.transition(ctx, userID, reservationID, true, func(_ repository.Tx, r *model.Reservation) error {
		return reservation.Renew(r, s.policy, now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventRenewed, r, now)
	return r, nil
}

// Cancel gives up the caller's ACTIVE reservation and releases its copy.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID string) (*model.Reservation, error) {
	now := s.now()
	r, err := s.transition(ctx, userID, reservationID, true, func(tx repository.Tx, r *model.Reservation) error {
		return reservation.Cancel(ctx, r, ledger.New(tx), now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventCancelled, r, now)
	return r, nil
}

// Return closes the caller's ACTIVE or OVERDUE reservation.
func (s *ReservationService) Return(ctx context.Context, userID, reservationID string) (*model.Reservation, error) {
	return s.returnReservation(ctx, userID, reservationID, true)
}

// ReturnAsLibrarian records a return at the desk for any user's reservation.
func (s *ReservationService) ReturnAsLibrarian(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.returnReservation(ctx, "", reservationID, false)
}

func (s *ReservationService) returnReservation(ctx context.Context, userID, reservationID string, ownerOnly bool) (*model.Reservation, error) {
	now := s.now()
	r, err := s.transition(ctx, userID, reservationID, ownerOnly, func(tx repository.Tx, r *model.Reservation) error {
		return reservation.Return(ctx, r, ledger.New(tx), now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventReturned, r, now)
	return r, nil
}

// transition loads the reservation for update, checks ownership, applies fn
// and stores the result, all in one transaction.
func (s *ReservationService) transition(
	ctx context.Context,
	userID, reservationID string,
	ownerOnly bool,
	fn func(tx repository.Tx, r *model.Reservation) error,
) (*model.Reservation, error) {
	if reservationID == "" || (ownerOnly && userID == "") {
		return nil, model.ErrMissingID
	}

	var updated *model.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if ownerOnly && r.UserID != userID {
			return model.ErrNotOwner
		}
		if err := fn(tx, r); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListMine returns every reservation of the user, newest first, with
// OVERDUE derived from the current time.
func (s *ReservationService) ListMine(ctx context.Context, userID string) ([]model.Reservation, error) {
	if userID == "" {
		return nil, model.ErrMissingID
	}
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	now := s.now()
	for i := range list {
		list[i] = reservation.Project(list[i], now)
	}
	return list, nil
}

// DashboardStats summarises the user's reservations.
func (s *ReservationService) DashboardStats(ctx context.Context, userID string) (*model.DashboardStats, error) {
	list, err := s.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &model.DashboardStats{}
	for _, r := range list {
		if r.Status.Outstanding() {
			stats.BooksReserved++
		}
		if r.Status == model.ReservationActive {
			if d := reservation.DaysUntilDue(r, now); d >= 0 && d <= s.policy.DueSoonDays {
				stats.BooksDueSoon++
			}
		}
		if r.Status != model.ReservationCancelled {
			stats.TotalBorrowed++
		}
	}
	return stats, nil
}

// GetBook returns the book's inventory view.
func (s *ReservationService) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	if bookID == "" {
		return nil, model.ErrMissingID
	}
	return s.store.GetBook(ctx, bookID)
}

// AdjustInventory applies a new total copy count from the catalog.
func (s *ReservationService) AdjustInventory(ctx context.Context, bookID string, totalCopies int) (*model.Book, error) {
	if bookID == "" {
		return nil, model.ErrMissingID
	}
	var book *model.Book
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := ledger.New(tx).Resize(ctx, bookID, totalCopies)
		book = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// SetMaintenance withdraws a book from lending or puts it back.
func (s *ReservationService) SetMaintenance(ctx context.Context, bookID string, on bool) (*model.Book, error) {
	if bookID == "" {
		return nil, model.ErrMissingID
	}
	var book *model.Book
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := ledger.New(tx).SetMaintenance(ctx, bookID, on)
		book = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// SweepOverdue persists OVERDUE for reservations already past due, so
// readers that bypass the service see the same status.
func (s *ReservationService) SweepOverdue(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return n, nil
}

// publish is best-effort: the change is already committed and the publisher
// reports its own failures.
func (s *ReservationService) publish(ctx context.Context, eventType string, r *model.Reservation, now time.Time) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, model.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		BookID:        r.BookID,
		UserID:        r.UserID,
		Status:        r.Status,
		DueDate:       r.DueDate,
		OccurredAt:    now.UTC(),
	})
}
