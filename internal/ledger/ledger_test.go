package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

type fakeRows struct {
	books       map[string]*model.Book
	outstanding map[string]int
	failWith    error
}

func newFakeRows(books ...model.Book) *fakeRows {
	f := &fakeRows{books: map[string]*model.Book{}, outstanding: map[string]int{}}
	for _, b := range books {
		b := b
		b.Status = RecomputeStatus(b)
		f.books[b.ID] = &b
	}
	return f
}

func (f *fakeRows) DecrementAvailable(_ context.Context, id string) (*model.Book, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	b, ok := f.books[id]
	if !ok || b.AvailableCopies <= 0 || b.UnderMaintenance {
		return nil, nil
	}
	b.AvailableCopies--
	cp := *b
	return &cp, nil
}

func (f *fakeRows) LockBook(_ context.Context, id string) (*model.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRows) CountOutstanding(_ context.Context, id string) (int, error) {
	return f.outstanding[id], nil
}

func (f *fakeRows) SetBookStatus(_ context.Context, id string, status model.BookStatus) error {
	f.books[id].Status = status
	return nil
}

func (f *fakeRows) WriteInventory(_ context.Context, b *model.Book) error {
	cp := *b
	f.books[b.ID] = &cp
	return nil
}

func TestRecomputeStatus(t *testing.T) {
	tests := []struct {
		name string
		book model.Book
		want model.BookStatus
	}{
		{"copies left", model.Book{TotalCopies: 3, AvailableCopies: 2}, model.BookAvailable},
		{"none left", model.Book{TotalCopies: 3, AvailableCopies: 0}, model.BookUnavailable},
		{"maintenance wins", model.Book{TotalCopies: 3, AvailableCopies: 3, UnderMaintenance: true}, model.BookMaintenance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecomputeStatus(tt.book))
		})
	}
}

func TestTryTake_LastCopyFlipsStatus(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 1, AvailableCopies: 1})
	l := New(rows)

	require.NoError(t, l.TryTake(context.Background(), "b1"))
	assert.Equal(t, 0, rows.books["b1"].AvailableCopies)
	assert.Equal(t, model.BookUnavailable, rows.books["b1"].Status)

	err := l.TryTake(context.Background(), "b1")
	assert.ErrorIs(t, err, model.ErrNoCopiesAvailable)
	assert.Equal(t, 0, rows.books["b1"].AvailableCopies)
}

func TestTryTake_UnknownBook(t *testing.T) {
	l := New(newFakeRows())

	err := l.TryTake(context.Background(), "missing")

	assert.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestTryTake_MaintenanceRefuses(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 2, AvailableCopies: 0, UnderMaintenance: true})

	err := New(rows).TryTake(context.Background(), "b1")

	assert.ErrorIs(t, err, model.ErrNoCopiesAvailable)
}

func TestTryTake_StoreFailureIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 1, AvailableCopies: 1})
	rows.failWith = boom

	err := New(rows).TryTake(context.Background(), "b1")

	assert.ErrorIs(t, err, boom)
}

func TestRelease_CappedAtTotal(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 2, AvailableCopies: 2})

	require.NoError(t, New(rows).Release(context.Background(), "b1"))

	assert.Equal(t, 2, rows.books["b1"].AvailableCopies)
}

func TestRelease_RestoresAvailability(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 1, AvailableCopies: 0})
	rows.outstanding["b1"] = 1

	require.NoError(t, New(rows).Release(context.Background(), "b1"))

	assert.Equal(t, 1, rows.books["b1"].AvailableCopies)
	assert.Equal(t, model.BookAvailable, rows.books["b1"].Status)
}

func TestRelease_AfterShrinkStaysAtZero(t *testing.T) {
	// three copies lent, then the catalog cut the total to one
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 1, AvailableCopies: 0})
	rows.outstanding["b1"] = 3
	l := New(rows)

	require.NoError(t, l.Release(context.Background(), "b1"))
	assert.Equal(t, 0, rows.books["b1"].AvailableCopies)
	assert.Equal(t, model.BookUnavailable, rows.books["b1"].Status)
	rows.outstanding["b1"] = 2

	require.NoError(t, l.Release(context.Background(), "b1"))
	assert.Equal(t, 0, rows.books["b1"].AvailableCopies)
	rows.outstanding["b1"] = 1

	require.NoError(t, l.Release(context.Background(), "b1"))
	assert.Equal(t, 1, rows.books["b1"].AvailableCopies)
	assert.Equal(t, model.BookAvailable, rows.books["b1"].Status)
}

func TestRelease_UnknownBook(t *testing.T) {
	err := New(newFakeRows()).Release(context.Background(), "gone")

	assert.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestResize(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		outstanding   int
		wantAvailable int
		wantStatus    model.BookStatus
	}{
		{"grow", 5, 2, 3, model.BookAvailable},
		{"shrink to outstanding", 2, 2, 0, model.BookUnavailable},
		{"shrink below outstanding clamps", 1, 3, 0, model.BookUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 1})
			rows.outstanding["b1"] = tt.outstanding

			b, err := New(rows).Resize(context.Background(), "b1", tt.total)

			require.NoError(t, err)
			assert.Equal(t, tt.total, b.TotalCopies)
			assert.Equal(t, tt.wantAvailable, b.AvailableCopies)
			assert.Equal(t, tt.wantStatus, b.Status)
			assert.Equal(t, tt.wantAvailable, rows.books["b1"].AvailableCopies)
		})
	}
}

func TestResize_RejectsZero(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 3, AvailableCopies: 3})

	_, err := New(rows).Resize(context.Background(), "b1", 0)

	assert.ErrorIs(t, err, model.ErrInvalidTotalCopies)
}

func TestSetMaintenance_RoundTrip(t *testing.T) {
	rows := newFakeRows(model.Book{ID: "b1", TotalCopies: 4, AvailableCopies: 3})
	rows.outstanding["b1"] = 1
	l := New(rows)

	b, err := l.SetMaintenance(context.Background(), "b1", true)
	require.NoError(t, err)
	assert.Equal(t, 0, b.AvailableCopies)
	assert.Equal(t, model.BookMaintenance, b.Status)

	// a return during maintenance keeps the book pinned at zero
	require.NoError(t, l.Release(context.Background(), "b1"))
	assert.Equal(t, 0, rows.books["b1"].AvailableCopies)
	rows.outstanding["b1"] = 0

	b, err = l.SetMaintenance(context.Background(), "b1", false)
	require.NoError(t, err)
	assert.Equal(t, 4, b.AvailableCopies)
	assert.Equal(t, model.BookAvailable, b.Status)
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, 3, Available(5, 2, false))
	assert.Equal(t, 0, Available(1, 4, false))
	assert.Equal(t, 5, Available(5, 0, false))
	assert.Equal(t, 0, Available(5, 0, true))
}
