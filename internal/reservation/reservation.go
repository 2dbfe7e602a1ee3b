// Package reservation implements the lifecycle of a single reservation:
//
//	ACTIVE  -> RETURNED | CANCELLED | OVERDUE
//	OVERDUE -> RETURNED
//
// OVERDUE is derived from the due date at read time (see Project); it does
// not need a stored transition. Terminal transitions hand the copy back to
// the inventory ledger through a Releaser.
package reservation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
	"github.com/Shivanand-hulikatti/library-lending/internal/policy"
)

// Releaser gives a held copy back to the inventory. It is called while the
// reservation is still stored as outstanding.
type Releaser interface {
	Release(ctx context.Context, bookID string) error
}

// errOverdue is returned when an overdue reservation is renewed or cancelled.
var errOverdue = fmt.Errorf("%w: reservation is overdue and must be returned", model.ErrNotActive)

// Create builds a new ACTIVE reservation. The caller must already hold the
// copy (ledger TryTake succeeded in the same transaction).
func Create(bookID, userID string, days int, now time.Time) (*model.Reservation, error) {
	if bookID == "" || userID == "" {
		return nil, model.ErrMissingID
	}
	if !policy.ValidPeriod(days) {
		return nil, model.ErrInvalidReservationPeriod
	}
	now = now.UTC()
	return &model.Reservation{
		ID:              uuid.NewString(),
		BookID:          bookID,
		UserID:          userID,
		ReservationDate: now,
		DueDate:         now.AddDate(0, 0, days),
		ReservationDays: days,
		RenewalCount:    0,
		Status:          model.ReservationActive,
		UpdatedAt:       now,
	}, nil
}

// IsOverdue reports whether an ACTIVE reservation has passed its due date.
// A reservation is still on time at exactly its due date.
func IsOverdue(r model.Reservation, now time.Time) bool {
	return r.Status == model.ReservationActive && now.After(r.DueDate)
}

// Project returns the reservation as it should be observed at now.
func Project(r model.Reservation, now time.Time) model.Reservation {
	if IsOverdue(r, now) {
		r.Status = model.ReservationOverdue
	}
	return r
}

// DaysUntilDue counts started days until the due date; negative once overdue.
func DaysUntilDue(r model.Reservation, now time.Time) int {
	return int(math.Ceil(r.DueDate.Sub(now).Hours() / 24))
}

// Renew extends the due date by the original loan period.
func Renew(r *model.Reservation, p policy.Policy, now time.Time) error {
	switch Project(*r, now).Status {
	case model.ReservationActive:
	case model.ReservationOverdue:
		return errOverdue
	default:
		return model.ErrNotActive
	}
	if !p.CanRenew(r.RenewalCount) {
		return model.ErrRenewalLimitReached
	}

	r.DueDate = r.DueDate.AddDate(0, 0, r.ReservationDays)
	r.RenewalCount++
	r.UpdatedAt = now.UTC()
	return nil
}

// Cancel gives up an ACTIVE reservation and releases its copy.
func Cancel(ctx context.Context, r *model.Reservation, rel Releaser, now time.Time) error {
	switch Project(*r, now).Status {
	case model.ReservationActive:
	case model.ReservationOverdue:
		return errOverdue
	default:
		return model.ErrNotActive
	}
	if err := rel.Release(ctx, r.BookID); err != nil {
		return err
	}

	r.Status = model.ReservationCancelled
	r.UpdatedAt = now.UTC()
	return nil
}

// Return closes an ACTIVE or OVERDUE reservation and releases its copy.
func Return(ctx context.Context, r *model.Reservation, rel Releaser, now time.Time) error {
	if !r.Status.Outstanding() {
		return model.ErrNotActive
	}
	if err := rel.Release(ctx, r.BookID); err != nil {
		return err
	}

	now = now.UTC()
	r.Status = model.ReservationReturned
	r.ReturnDate = &now
	r.UpdatedAt = now
	return nil
}
