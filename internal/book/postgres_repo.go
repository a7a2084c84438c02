package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, COALESCE(isbn, ''), description, condition, status, owner_id, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
	INSERT INTO books (id, title, author, isbn, description, condition, status, owner_id)
	VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query,
		b.Title, b.Author, b.ISBN, b.Description, b.Condition, b.Status, b.OwnerID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1 LIMIT 1`, bookColumns)

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
		&b.Condition, &b.Status, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) ListAvailable(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"status = $1"}
	args := []any{StatusAvailable}
	argn := 2

	if q.ExcludeOwner != "" {
		clauses = append(clauses, fmt.Sprintf("owner_id <> $%d", argn))
		args = append(args, q.ExcludeOwner)
		argn++
	}
	clauses, args, argn = appendSearch(clauses, args, argn, q.Q)

	return r.list(ctx, clauses, args, argn, q)
}

func (r *PostgresRepo) ListOwnedBy(ctx context.Context, ownerID string, q Query) ([]Book, int, error) {
	clauses := []string{"owner_id = $1"}
	args := []any{ownerID}
	argn := 2

	clauses, args, argn = appendSearch(clauses, args, argn, q.Q)

	return r.list(ctx, clauses, args, argn, q)
}

// appendSearch adds the shared search predicate: substring match on
// title or author, exact match on ISBN, all case-insensitive.
func appendSearch(clauses []string, args []any, argn int, q string) ([]string, []any, int) {
	if q == "" {
		return clauses, args, argn
	}
	clauses = append(clauses, fmt.Sprintf(
		"(title ILIKE $%d OR author ILIKE $%d OR isbn ILIKE $%d)", argn, argn, argn+1))
	args = append(args, "%"+q+"%", q)
	return clauses, args, argn + 2
}

func (r *PostgresRepo) list(ctx context.Context, clauses []string, args []any, argn int, q Query) ([]Book, int, error) {
	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, q.Limit, q.Offset)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
			&b.Condition, &b.Status, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}
