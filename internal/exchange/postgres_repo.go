package exchange

import (
	"context"
	"fmt"

	"bookswap/internal/book"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (r *PostgresRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PostgresRepo) GetBookForUpdate(ctx context.Context, bookID string) (book.Book, error) {
	const query = `
SELECT id, title, author, COALESCE(isbn, ''), description, condition, status, owner_id, created_at, updated_at
FROM books
WHERE id = $1
FOR UPDATE`

	var b book.Book
	err := r.queryRow(ctx, query, bookID).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
		&b.Condition, &b.Status, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, fmt.Errorf("get book for update: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) GetExchangeForUpdate(ctx context.Context, id string) (Exchange, error) {
	const query = `
SELECT id, book_id, requester_id, status, requested_at
FROM exchanges
WHERE id = $1
FOR UPDATE`

	var ex Exchange
	err := r.queryRow(ctx, query, id).Scan(&ex.ID, &ex.BookID, &ex.RequesterID, &ex.Status, &ex.RequestedAt)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return Exchange{}, ErrNotFound
		}
		return Exchange{}, fmt.Errorf("get exchange for update: %w", err)
	}
	return ex, nil
}

func (r *PostgresRepo) FindActive(ctx context.Context, bookID, requesterID string) (*Exchange, error) {
	const query = `
SELECT id, book_id, requester_id, status, requested_at
FROM exchanges
WHERE book_id = $1 AND requester_id = $2 AND status IN ('PENDING', 'ACCEPTED')
LIMIT 1`

	var ex Exchange
	err := r.queryRow(ctx, query, bookID, requesterID).
		Scan(&ex.ID, &ex.BookID, &ex.RequesterID, &ex.Status, &ex.RequestedAt)
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active exchange: %w", err)
	}
	return &ex, nil
}

func (r *PostgresRepo) Create(ctx context.Context, ex *Exchange) error {
	const stmt = `
INSERT INTO exchanges (id, book_id, requester_id, status)
VALUES ($1, $2, $3, $4)
RETURNING requested_at`

	err := r.queryRow(ctx, stmt, ex.ID, ex.BookID, ex.RequesterID, ex.Status).Scan(&ex.RequestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create exchange: %w", err)
	}
	return nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	const stmt = `UPDATE exchanges SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, status)
	if err != nil {
		return fmt.Errorf("update exchange status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) RejectOtherPending(ctx context.Context, bookID, acceptedID string) error {
	const stmt = `
UPDATE exchanges
SET status = 'REJECTED'
WHERE book_id = $1 AND id <> $2 AND status = 'PENDING'`

	if _, err := r.exec(ctx, stmt, bookID, acceptedID); err != nil {
		return fmt.Errorf("reject sibling exchanges: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetBookStatus(ctx context.Context, bookID string, status book.Status) error {
	const stmt = `UPDATE books SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, bookID, status)
	if err != nil {
		return fmt.Errorf("set book status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) TransferBookOwner(ctx context.Context, bookID, newOwnerID string) error {
	const stmt = `UPDATE books SET owner_id = $2, updated_at = now() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, bookID, newOwnerID)
	if err != nil {
		return fmt.Errorf("transfer book owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

const listColumns = `
e.id, e.book_id, e.requester_id, e.status, e.requested_at, b.title, b.owner_id`

func (r *PostgresRepo) ListByBookOwner(ctx context.Context, ownerID string) ([]Exchange, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM exchanges e
JOIN books b ON b.id = e.book_id
WHERE b.owner_id = $1
ORDER BY e.requested_at DESC`, listColumns)

	return r.listQuery(ctx, query, ownerID)
}

func (r *PostgresRepo) ListByRequester(ctx context.Context, requesterID string) ([]Exchange, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM exchanges e
JOIN books b ON b.id = e.book_id
WHERE e.requester_id = $1
ORDER BY e.requested_at DESC`, listColumns)

	return r.listQuery(ctx, query, requesterID)
}

func (r *PostgresRepo) listQuery(ctx context.Context, query string, args ...any) ([]Exchange, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(
			&ex.ID, &ex.BookID, &ex.RequesterID, &ex.Status, &ex.RequestedAt,
			&ex.BookTitle, &ex.BookOwnerID,
		); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PostgresRepo) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PostgresRepo) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
