package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

const bookColumns = `id, COALESCE(title, ''), COALESCE(category_id, ''), total_copies,
	available_copies, under_maintenance, status, updated_at`

const reservationColumns = `id, book_id, user_id, reservation_date, due_date, return_date,
	reservation_days, renewal_count, status, updated_at`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithTx runs fn inside a database transaction.
//
// The copy count is guarded by a conditional update
// (UPDATE ... WHERE available_copies > 0) rather than a read-then-write, so
// two transactions racing for the last copy serialise on the book row: the
// second one re-evaluates the WHERE clause after the first commits, matches
// no row, and fails with ErrNoCopiesAvailable. Because the decrement and the
// reservation insert share this transaction, a failed insert also undoes
// the decrement.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByUser returns all reservations of a user, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE user_id = $1
		 ORDER BY reservation_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetBook returns the inventory view of a single book.
func (s *PostgresStore) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	b, err := scanBook(s.db.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// MarkOverdue persists the OVERDUE status for every ACTIVE reservation past
// its due date. The copy stays held, so books are not touched.
func (s *PostgresStore) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE reservations
		 SET status = 'OVERDUE', updated_at = $1
		 WHERE status = 'ACTIVE' AND due_date < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// pgTx implements Tx on a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) DecrementAvailable(ctx context.Context, bookID string) (*model.Book, error) {
	b, err := scanBook(t.tx.QueryRow(ctx,
		`UPDATE books
		 SET available_copies = available_copies - 1,
		     updated_at = NOW()
		 WHERE id = $1
		   AND available_copies > 0
		   AND NOT under_maintenance
		 RETURNING `+bookColumns,
		bookID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (t *pgTx) LockBook(ctx context.Context, bookID string) (*model.Book, error) {
	b, err := scanBook(t.tx.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, bookID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrBookNotFound
	}
	return b, err
}

func (t *pgTx) CountOutstanding(ctx context.Context, bookID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE book_id = $1 AND status IN ('ACTIVE', 'OVERDUE')`,
		bookID,
	).Scan(&n)
	return n, err
}

func (t *pgTx) SetBookStatus(ctx context.Context, bookID string, status model.BookStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE books SET status = $2 WHERE id = $1`, bookID, string(status))
	return err
}

func (t *pgTx) WriteInventory(ctx context.Context, b *model.Book) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE books
		 SET total_copies = $2,
		     available_copies = $3,
		     under_maintenance = $4,
		     status = $5,
		     updated_at = NOW()
		 WHERE id = $1`,
		b.ID, b.TotalCopies, b.AvailableCopies, b.UnderMaintenance, string(b.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (t *pgTx) LockUser(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return err
}

func (t *pgTx) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE user_id = $1 AND status IN ('ACTIVE', 'OVERDUE')`,
		userID,
	).Scan(&n)
	return n, err
}

func (t *pgTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO reservations (id, book_id, user_id, reservation_date, due_date, return_date,
		                           reservation_days, renewal_count, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.BookID, r.UserID, r.ReservationDate, r.DueDate, r.ReturnDate,
		r.ReservationDays, r.RenewalCount, string(r.Status), r.UpdatedAt,
	)
	return err
}

func (t *pgTx) GetReservationForUpdate(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrReservationNotFound
	}
	return r, err
}

func (t *pgTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE reservations
		 SET due_date = $2,
		     return_date = $3,
		     renewal_count = $4,
		     status = $5,
		     updated_at = $6
		 WHERE id = $1`,
		r.ID, r.DueDate, r.ReturnDate, r.RenewalCount, string(r.Status), r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	var status string
	err := row.Scan(&b.ID, &b.Title, &b.CategoryID, &b.TotalCopies,
		&b.AvailableCopies, &b.UnderMaintenance, &status, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = model.BookStatus(status)
	return &b, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var r model.Reservation
	var status string
	err := row.Scan(&r.ID, &r.BookID, &r.UserID, &r.ReservationDate, &r.DueDate, &r.ReturnDate,
		&r.ReservationDays, &r.RenewalCount, &status, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.ReservationStatus(status)
	return &r, nil
}
