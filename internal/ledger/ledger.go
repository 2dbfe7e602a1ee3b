// Package ledger keeps each book's copy counts consistent with its
// outstanding reservations. It is the only writer of available copies and
// book status; every store reaches those columns through a Rows port.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

// Rows is the book-row access the ledger needs inside one transaction.
type Rows interface {
	// DecrementAvailable takes one copy if the book has one and is not under
	// maintenance, in a single conditional update. It returns nil when no row
	// matched.
	DecrementAvailable(ctx context.Context, bookID string) (*model.Book, error)

	// LockBook reads the book row and holds it for the rest of the transaction.
	LockBook(ctx context.Context, bookID string) (*model.Book, error)

	// CountOutstanding counts ACTIVE and OVERDUE reservations on the book.
	CountOutstanding(ctx context.Context, bookID string) (int, error)

	SetBookStatus(ctx context.Context, bookID string, status model.BookStatus) error

	// WriteInventory stores total, available, maintenance flag and status.
	WriteInventory(ctx context.Context, b *model.Book) error
}

// Ledger applies copy-count changes through a transaction's Rows.
type Ledger struct {
	rows Rows
}

// New binds a ledger to the rows of one transaction.
func New(rows Rows) *Ledger {
	return &Ledger{rows: rows}
}

// RecomputeStatus derives a book's status from its counts.
func RecomputeStatus(b model.Book) model.BookStatus {
	switch {
	case b.UnderMaintenance:
		return model.BookMaintenance
	case b.AvailableCopies > 0:
		return model.BookAvailable
	default:
		return model.BookUnavailable
	}
}

// TryTake atomically takes one copy of the book.
// Two callers racing for the last copy get exactly one success; the loser
// sees model.ErrNoCopiesAvailable.
func (l *Ledger) TryTake(ctx context.Context, bookID string) error {
	b, err := l.rows.DecrementAvailable(ctx, bookID)
	if err != nil {
		return fmt.Errorf("take copy: %w", err)
	}
	if b == nil {
		// Nothing matched: either the book is missing or it has no copy to give.
		if _, err := l.rows.LockBook(ctx, bookID); err != nil {
			if errors.Is(err, model.ErrBookNotFound) {
				return model.ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}
		return model.ErrNoCopiesAvailable
	}
	return l.syncStatus(ctx, b)
}

// Release gives back the copy held by one outstanding reservation. It must
// run before that reservation leaves the outstanding set in the same
// transaction. Availability is re-derived from the remaining outstanding
// reservations, so a book whose total shrank below what is lent out stays
// at zero until enough copies are back.
func (l *Ledger) Release(ctx context.Context, bookID string) error {
	_, err := l.rederive(ctx, bookID, 1, nil)
	return err
}

// Resize applies a catalog change of the book's total copy count and
// re-derives availability from the outstanding reservations. Availability
// never goes below zero, even when the new total is smaller than what is
// currently lent out.
func (l *Ledger) Resize(ctx context.Context, bookID string, totalCopies int) (*model.Book, error) {
	if totalCopies < 1 {
		return nil, model.ErrInvalidTotalCopies
	}
	return l.rederive(ctx, bookID, 0, func(b *model.Book) {
		b.TotalCopies = totalCopies
	})
}

// SetMaintenance withdraws the book from lending or puts it back. Copies
// already lent stay lent; leaving maintenance re-derives availability.
func (l *Ledger) SetMaintenance(ctx context.Context, bookID string, on bool) (*model.Book, error) {
	return l.rederive(ctx, bookID, 0, func(b *model.Book) {
		b.UnderMaintenance = on
	})
}

// rederive locks the book, applies change and recomputes availability from
// the outstanding reservations minus the releasing ones.
func (l *Ledger) rederive(ctx context.Context, bookID string, releasing int, change func(*model.Book)) (*model.Book, error) {
	b, err := l.rows.LockBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, model.ErrBookNotFound) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("lock book: %w", err)
	}
	outstanding, err := l.rows.CountOutstanding(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("count outstanding: %w", err)
	}
	outstanding = max(0, outstanding-releasing)

	if change != nil {
		change(b)
	}
	b.AvailableCopies = Available(b.TotalCopies, outstanding, b.UnderMaintenance)
	b.Status = RecomputeStatus(*b)

	if err := l.rows.WriteInventory(ctx, b); err != nil {
		return nil, fmt.Errorf("write inventory: %w", err)
	}
	return b, nil
}

// Available derives the available copy count from the total and the number
// of copies currently held by reservations.
func Available(total, outstanding int, maintenance bool) int {
	if maintenance {
		return 0
	}
	return max(0, min(total, total-outstanding))
}

func (l *Ledger) syncStatus(ctx context.Context, b *model.Book) error {
	status := RecomputeStatus(*b)
	if status == b.Status {
		return nil
	}
	if err := l.rows.SetBookStatus(ctx, b.ID, status); err != nil {
		return fmt.Errorf("set book status: %w", err)
	}
	b.Status = status
	return nil
}
