package book

import (
	"context"
)

// Repository is the read/create surface for book listings. Status and
// owner mutation is deliberately absent: those columns change only
// inside exchange transactions.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (Book, error)
	ListAvailable(ctx context.Context, q Query) ([]Book, int, error)
	ListOwnedBy(ctx context.Context, ownerID string, q Query) ([]Book, int, error)
}
