package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/library-lending/internal/ledger"
	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

// MemoryStore is an in-process Store. Transactions run one at a time on a
// working copy of the data that replaces the committed state only when the
// transaction function succeeds.
type MemoryStore struct {
	mu           sync.Mutex
	books        map[string]model.Book
	reservations map[string]model.Reservation
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:        make(map[string]model.Book),
		reservations: make(map[string]model.Reservation),
	}
}

// PutBook adds or replaces a catalog entry, deriving its status.
func (s *MemoryStore) PutBook(b model.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	b.Status = ledger.RecomputeStatus(b)
	s.books[b.ID] = b
}

// WithTx runs fn against a private copy of the store.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		books:        maps.Clone(s.books),
		reservations: maps.Clone(s.reservations),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.books = tx.books
	s.reservations = tx.reservations
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReservationDate.Equal(out[j].ReservationDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].ReservationDate.After(out[j].ReservationDate)
	})
	return out, nil
}

func (s *MemoryStore) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[bookID]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	return &b, nil
}

func (s *MemoryStore) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.reservations {
		if r.Status == model.ReservationActive && r.DueDate.Before(now) {
			r.Status = model.ReservationOverdue
			r.UpdatedAt = now
			s.reservations[id] = r
			n++
		}
	}
	return n, nil
}

type memTx struct {
	books        map[string]model.Book
	reservations map[string]model.Reservation
}

func (t *memTx) DecrementAvailable(_ context.Context, bookID string) (*model.Book, error) {
	b, ok := t.books[bookID]
	if !ok || b.AvailableCopies <= 0 || b.UnderMaintenance {
		return nil, nil
	}
	b.AvailableCopies--
	b.UpdatedAt = time.Now().UTC()
	t.books[bookID] = b
	return &b, nil
}

func (t *memTx) LockBook(_ context.Context, bookID string) (*model.Book, error) {
	b, ok := t.books[bookID]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	return &b, nil
}

func (t *memTx) CountOutstanding(_ context.Context, bookID string) (int, error) {
	n := 0
	for _, r := range t.reservations {
		if r.BookID == bookID && r.Status.Outstanding() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) SetBookStatus(_ context.Context, bookID string, status model.BookStatus) error {
	b, ok := t.books[bookID]
	if !ok {
		return model.ErrBookNotFound
	}
	b.Status = status
	t.books[bookID] = b
	return nil
}

func (t *memTx) WriteInventory(_ context.Context, in *model.Book) error {
	b, ok := t.books[in.ID]
	if !ok {
		return model.ErrBookNotFound
	}
	b.TotalCopies = in.TotalCopies
	b.AvailableCopies = in.AvailableCopies
	b.UnderMaintenance = in.UnderMaintenance
	b.Status = in.Status
	b.UpdatedAt = time.Now().UTC()
	t.books[in.ID] = b
	return nil
}

// LockUser is a no-op: memory transactions are already serialised.
func (t *memTx) LockUser(context.Context, string) error { return nil }

func (t *memTx) CountActiveByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, r := range t.reservations {
		if r.UserID == userID && r.Status.Outstanding() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	t.reservations[r.ID] = *r
	return nil
}

func (t *memTx) GetReservationForUpdate(_ context.Context, id string) (*model.Reservation, error) {
	r, ok := t.reservations[id]
	if !ok {
		return nil, model.ErrReservationNotFound
	}
	return &r, nil
}

func (t *memTx) UpdateReservation(_ context.Context, r *model.Reservation) error {
	if _, ok := t.reservations[r.ID]; !ok {
		return model.ErrReservationNotFound
	}
	t.reservations[r.ID] = *r
	return nil
}
