package exchange

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookswap/internal/book"
)

// fakeRepo is an in-memory Repository for coordinator tests. WithTx
// takes one big lock, which gives the same end result as the
// serializable row-locked transactions the Postgres repo runs: racing
// transitions on a book execute one after the other.
type fakeRepo struct {
	mu        sync.Mutex
	books     map[string]book.Book
	exchanges map[string]Exchange
	now       time.Time
}

func newFakeRepo(books []book.Book, exchanges []Exchange) *fakeRepo {
	r := &fakeRepo{
		books:     make(map[string]book.Book),
		exchanges: make(map[string]Exchange),
		now:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, b := range books {
		r.books[b.ID] = b
	}
	for _, ex := range exchanges {
		r.exchanges[ex.ID] = ex
	}
	return r
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

func (r *fakeRepo) GetBookForUpdate(_ context.Context, bookID string) (book.Book, error) {
	b, ok := r.books[bookID]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (r *fakeRepo) GetExchangeForUpdate(_ context.Context, id string) (Exchange, error) {
	ex, ok := r.exchanges[id]
	if !ok {
		return Exchange{}, ErrNotFound
	}
	return ex, nil
}

func (r *fakeRepo) FindActive(_ context.Context, bookID, requesterID string) (*Exchange, error) {
	for _, ex := range r.exchanges {
		if ex.BookID == bookID && ex.RequesterID == requesterID &&
			(ex.Status == StatusPending || ex.Status == StatusAccepted) {
			found := ex
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Create(_ context.Context, ex *Exchange) error {
	// Mirror of the partial unique index on (book_id, requester_id)
	// WHERE status IN ('PENDING', 'ACCEPTED').
	for _, existing := range r.exchanges {
		if existing.BookID == ex.BookID && existing.RequesterID == ex.RequesterID &&
			(existing.Status == StatusPending || existing.Status == StatusAccepted) {
			return ErrConflict
		}
	}
	r.now = r.now.Add(time.Second)
	ex.RequestedAt = r.now
	r.exchanges[ex.ID] = *ex
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	ex, ok := r.exchanges[id]
	if !ok {
		return ErrNotFound
	}
	ex.Status = status
	r.exchanges[id] = ex
	return nil
}

func (r *fakeRepo) RejectOtherPending(_ context.Context, bookID, acceptedID string) error {
	for id, ex := range r.exchanges {
		if ex.BookID == bookID && ex.ID != acceptedID && ex.Status == StatusPending {
			ex.Status = StatusRejected
			r.exchanges[id] = ex
		}
	}
	return nil
}

func (r *fakeRepo) SetBookStatus(_ context.Context, bookID string, status book.Status) error {
	b, ok := r.books[bookID]
	if !ok {
		return book.ErrNotFound
	}
	b.Status = status
	r.books[bookID] = b
	return nil
}

func (r *fakeRepo) TransferBookOwner(_ context.Context, bookID, newOwnerID string) error {
	b, ok := r.books[bookID]
	if !ok {
		return book.ErrNotFound
	}
	b.OwnerID = newOwnerID
	r.books[bookID] = b
	return nil
}

func (r *fakeRepo) ListByBookOwner(_ context.Context, ownerID string) ([]Exchange, error) {
	var out []Exchange
	for _, ex := range r.exchanges {
		if b, ok := r.books[ex.BookID]; ok && b.OwnerID == ownerID {
			out = append(out, ex)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeRepo) ListByRequester(_ context.Context, requesterID string) ([]Exchange, error) {
	var out []Exchange
	for _, ex := range r.exchanges {
		if ex.RequesterID == requesterID {
			out = append(out, ex)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(exchanges []Exchange) {
	sort.Slice(exchanges, func(i, j int) bool {
		return exchanges[i].RequestedAt.After(exchanges[j].RequestedAt)
	})
}

func (r *fakeRepo) bookState(id string) book.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[id]
}

func (r *fakeRepo) exchangeState(id string) Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exchanges[id]
}
