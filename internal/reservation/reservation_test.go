package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
	"github.com/Shivanand-hulikatti/library-lending/internal/policy"
)

type MockReleaser struct {
	mock.Mock
}

func (m *MockReleaser) Release(ctx context.Context, bookID string) error {
	args := m.Called(ctx, bookID)
	return args.Error(0)
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func active(t *testing.T, days int) *model.Reservation {
	t.Helper()
	r, err := Create("book-1", "user-1", days, t0)
	require.NoError(t, err)
	return r
}

func TestCreate(t *testing.T) {
	for _, days := range []int{7, 14, 21} {
		r, err := Create("book-1", "user-1", days, t0)

		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, model.ReservationActive, r.Status)
		assert.Equal(t, t0, r.ReservationDate)
		assert.Equal(t, t0.AddDate(0, 0, days), r.DueDate)
		assert.Equal(t, 0, r.RenewalCount)
		assert.Nil(t, r.ReturnDate)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		bookID  string
		userID  string
		days    int
		wantErr error
	}{
		{"bad period", "b", "u", 10, model.ErrInvalidReservationPeriod},
		{"zero period", "b", "u", 0, model.ErrInvalidReservationPeriod},
		{"missing book", "", "u", 7, model.ErrMissingID},
		{"missing user", "b", "", 7, model.ErrMissingID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.bookID, tt.userID, tt.days, t0)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProject_OverdueStrictlyAfterDueDate(t *testing.T) {
	r := active(t, 7)

	assert.Equal(t, model.ReservationActive, Project(*r, r.DueDate).Status)
	assert.Equal(t, model.ReservationOverdue, Project(*r, r.DueDate.Add(time.Nanosecond)).Status)
	// the stored value is untouched
	assert.Equal(t, model.ReservationActive, r.Status)
}

func TestProject_TerminalNeverOverdue(t *testing.T) {
	r := active(t, 7)
	r.Status = model.ReservationReturned

	assert.Equal(t, model.ReservationReturned, Project(*r, t0.AddDate(1, 0, 0)).Status)
}

func TestDaysUntilDue(t *testing.T) {
	r := active(t, 7)

	assert.Equal(t, 7, DaysUntilDue(*r, t0))
	assert.Equal(t, 1, DaysUntilDue(*r, r.DueDate.Add(-3*time.Hour)))
	assert.Equal(t, 0, DaysUntilDue(*r, r.DueDate))
	assert.Equal(t, -10, DaysUntilDue(*r, r.DueDate.AddDate(0, 0, 10)))
}

func TestRenew(t *testing.T) {
	r := active(t, 14)
	due := r.DueDate

	err := Renew(r, policy.Policy{MaxRenewals: 2}, t0.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 14), r.DueDate)
	assert.Equal(t, 1, r.RenewalCount)
	assert.Equal(t, model.ReservationActive, r.Status)
}

func TestRenew_LimitReached(t *testing.T) {
	r := active(t, 7)
	p := policy.Policy{MaxRenewals: 1}

	require.NoError(t, Renew(r, p, t0))
	due := r.DueDate

	err := Renew(r, p, t0)

	assert.ErrorIs(t, err, model.ErrRenewalLimitReached)
	assert.Equal(t, 1, r.RenewalCount)
	assert.Equal(t, due, r.DueDate)
}

func TestRenew_ZeroRenewalsAllowed(t *testing.T) {
	r := active(t, 7)

	err := Renew(r, policy.Policy{MaxRenewals: 0}, t0)

	assert.ErrorIs(t, err, model.ErrRenewalLimitReached)
}

func TestRenew_OverdueRejected(t *testing.T) {
	r := active(t, 7)

	err := Renew(r, policy.Policy{MaxRenewals: 5}, r.DueDate.AddDate(0, 0, 1))

	assert.ErrorIs(t, err, model.ErrNotActive)
	assert.Contains(t, err.Error(), "overdue")
	assert.Equal(t, 0, r.RenewalCount)
}

func TestCancel(t *testing.T) {
	r := active(t, 7)
	rel := new(MockReleaser)
	rel.On("Release", mock.Anything, "book-1").Return(nil).Once()

	err := Cancel(context.Background(), r, rel, t0.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, r.Status)
	assert.Nil(t, r.ReturnDate)
	rel.AssertExpectations(t)
}

func TestCancel_ReleaseFailureLeavesStateUntouched(t *testing.T) {
	r := active(t, 7)
	rel := new(MockReleaser)
	rel.On("Release", mock.Anything, "book-1").Return(model.ErrBookNotFound)

	err := Cancel(context.Background(), r, rel, t0)

	assert.ErrorIs(t, err, model.ErrBookNotFound)
	assert.Equal(t, model.ReservationActive, r.Status)
}

func TestCancel_OverdueRejected(t *testing.T) {
	r := active(t, 7)
	rel := new(MockReleaser)

	err := Cancel(context.Background(), r, rel, r.DueDate.Add(time.Minute))

	assert.ErrorIs(t, err, model.ErrNotActive)
	rel.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestReturn_FromActiveAndOverdue(t *testing.T) {
	for _, at := range []time.Time{t0.Add(time.Hour), t0.AddDate(0, 0, 30)} {
		r := active(t, 7)
		rel := new(MockReleaser)
		rel.On("Release", mock.Anything, "book-1").Return(nil).Once()

		err := Return(context.Background(), r, rel, at)

		require.NoError(t, err)
		assert.Equal(t, model.ReservationReturned, r.Status)
		require.NotNil(t, r.ReturnDate)
		assert.Equal(t, at, *r.ReturnDate)
		rel.AssertExpectations(t)
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, status := range []model.ReservationStatus{model.ReservationReturned, model.ReservationCancelled} {
		t.Run(string(status), func(t *testing.T) {
			r := active(t, 7)
			r.Status = status
			rel := new(MockReleaser)

			assert.ErrorIs(t, Renew(r, policy.Policy{MaxRenewals: 3}, t0), model.ErrNotActive)
			assert.ErrorIs(t, Cancel(context.Background(), r, rel, t0), model.ErrNotActive)
			assert.ErrorIs(t, Return(context.Background(), r, rel, t0), model.ErrNotActive)
			assert.Equal(t, status, r.Status)
			rel.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
		})
	}
}

func TestErrOverdueUnwrapsToNotActive(t *testing.T) {
	var domainErr *model.Error
	require.True(t, errors.As(errOverdue, &domainErr))
	assert.Equal(t, "NOT_ACTIVE", domainErr.Code)
}
