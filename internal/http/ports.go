package http

import (
	"context"

	"bookswap/internal/book"
	"bookswap/internal/exchange"
	"bookswap/internal/user"
)

// Service interfaces consumed by the handlers; mocked in tests.

type BookService interface {
	Create(ctx context.Context, ownerID string, in book.CreateInput) (book.Book, error)
	Get(ctx context.Context, id string) (book.Book, error)
	ListAvailable(ctx context.Context, q book.Query) ([]book.Book, int, error)
	ListOwnedBy(ctx context.Context, ownerID string, q book.Query) ([]book.Book, int, error)
}

type ExchangeService interface {
	Request(ctx context.Context, actorID, bookID string) (exchange.Exchange, error)
	Accept(ctx context.Context, actorID, exchangeID string) error
	Reject(ctx context.Context, actorID, exchangeID string) error
	Finalize(ctx context.Context, actorID, exchangeID string) error
	ListForUser(ctx context.Context, userID string) (exchange.Mailbox, error)
	ActiveRequestFor(ctx context.Context, userID, bookID string) (*exchange.Exchange, error)
}

type UserService interface {
	Register(ctx context.Context, email, username, hashedPassword string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}
