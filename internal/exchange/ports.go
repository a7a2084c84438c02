package exchange

import (
	"context"

	"bookswap/internal/book"
)

// Repository is the transactional storage surface the coordinator
// drives. Every mutating coordinator operation runs inside WithTx;
// the ForUpdate reads lock the underlying rows for the duration of
// that transaction so racing transitions serialize on the book.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetBookForUpdate(ctx context.Context, bookID string) (book.Book, error)
	GetExchangeForUpdate(ctx context.Context, id string) (Exchange, error)

	// FindActive returns the (book, requester) exchange currently in
	// Pending or Accepted, or nil. At most one can exist; the partial
	// unique index guarantees it.
	FindActive(ctx context.Context, bookID, requesterID string) (*Exchange, error)

	Create(ctx context.Context, ex *Exchange) error
	UpdateStatus(ctx context.Context, id string, status Status) error

	// RejectOtherPending moves every Pending exchange for the book,
	// except the one being accepted, to Rejected.
	RejectOtherPending(ctx context.Context, bookID, acceptedID string) error

	SetBookStatus(ctx context.Context, bookID string, status book.Status) error
	TransferBookOwner(ctx context.Context, bookID, newOwnerID string) error

	ListByBookOwner(ctx context.Context, ownerID string) ([]Exchange, error)
	ListByRequester(ctx context.Context, requesterID string) ([]Exchange, error)
}
