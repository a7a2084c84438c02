package exchange

import (
	"context"
	"sync"
	"testing"

	"bookswap/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func availableBook(id, ownerID string) book.Book {
	return book.Book{
		ID:      id,
		Title:   "The Go Programming Language",
		Author:  "Donovan & Kernighan",
		Status:  book.StatusAvailable,
		OwnerID: ownerID,
	}
}

func TestService_Request(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates pending exchange and leaves book available", func(t *testing.T) {
		repo := newFakeRepo([]book.Book{availableBook("b1", "alice")}, nil)
		svc := NewService(repo)

		ex, err := svc.Request(ctx, "carol", "b1")
		require.NoError(t, err)
		assert.NotEmpty(t, ex.ID)
		assert.Equal(t, StatusPending, ex.Status)
		assert.Equal(t, "b1", ex.BookID)
		assert.Equal(t, "carol", ex.RequesterID)
		assert.False(t, ex.RequestedAt.IsZero())
		assert.Equal(t, book.StatusAvailable, repo.bookState("b1").Status)
	})

	t.Run("owner cannot request own book regardless of status", func(t *testing.T) {
		for _, status := range []book.Status{book.StatusAvailable, book.StatusPendingExchange, book.StatusExchanged} {
			b := availableBook("b1", "alice")
			b.Status = status
			repo := newFakeRepo([]book.Book{b}, nil)
			svc := NewService(repo)

			_, err := svc.Request(ctx, "alice", "b1")
			assert.ErrorIs(t, err, ErrForbidden, "status %s", status)
		}
	})

	t.Run("duplicate active request is denied", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending}},
		)
		svc := NewService(repo)

		_, err := svc.Request(ctx, "carol", "b1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("new request allowed after previous one was rejected", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusRejected}},
		)
		svc := NewService(repo)

		_, err := svc.Request(ctx, "carol", "b1")
		assert.NoError(t, err)
	})

	t.Run("unavailable book is denied", func(t *testing.T) {
		b := availableBook("b1", "alice")
		b.Status = book.StatusExchanged
		repo := newFakeRepo([]book.Book{b}, nil)
		svc := NewService(repo)

		_, err := svc.Request(ctx, "carol", "b1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing book is not found", func(t *testing.T) {
		repo := newFakeRepo(nil, nil)
		svc := NewService(repo)

		_, err := svc.Request(ctx, "carol", "nope")
		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}

func TestService_Request_ConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo([]book.Book{availableBook("b1", "alice")}, nil)
	svc := NewService(repo)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Request(context.Background(), "carol", "b1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrForbidden)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one duplicate request may win")
}

func TestService_Accept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pendingSetup := func() (*Service, *fakeRepo) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{
				{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending},
				{ID: "e2", BookID: "b1", RequesterID: "dave", Status: StatusPending},
				{ID: "e3", BookID: "b1", RequesterID: "erin", Status: StatusPending},
			},
		)
		return NewService(repo), repo
	}

	t.Run("accept marks book exchanged and rejects siblings", func(t *testing.T) {
		svc, repo := pendingSetup()

		require.NoError(t, svc.Accept(ctx, "alice", "e1"))

		assert.Equal(t, StatusAccepted, repo.exchangeState("e1").Status)
		assert.Equal(t, StatusRejected, repo.exchangeState("e2").Status)
		assert.Equal(t, StatusRejected, repo.exchangeState("e3").Status)
		assert.Equal(t, book.StatusExchanged, repo.bookState("b1").Status)
		// Ownership does not move until finalize.
		assert.Equal(t, "alice", repo.bookState("b1").OwnerID)
	})

	t.Run("non-owner cannot accept", func(t *testing.T) {
		svc, repo := pendingSetup()

		err := svc.Accept(ctx, "carol", "e1")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, StatusPending, repo.exchangeState("e1").Status)
	})

	t.Run("accept of non-pending exchange is denied", func(t *testing.T) {
		svc, repo := pendingSetup()
		require.NoError(t, svc.Accept(ctx, "alice", "e1"))

		assert.ErrorIs(t, svc.Accept(ctx, "alice", "e1"), ErrForbidden)
		assert.ErrorIs(t, svc.Accept(ctx, "alice", "e2"), ErrForbidden)
		assert.Equal(t, StatusAccepted, repo.exchangeState("e1").Status)
	})

	t.Run("missing exchange is not found", func(t *testing.T) {
		svc, _ := pendingSetup()
		assert.ErrorIs(t, svc.Accept(ctx, "alice", "nope"), ErrNotFound)
	})
}

func TestService_Accept_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(
		[]book.Book{availableBook("b1", "alice")},
		[]Exchange{
			{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending},
			{ID: "e2", BookID: "b1", RequesterID: "dave", Status: StatusPending},
		},
	)
	svc := NewService(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"e1", "e2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = svc.Accept(context.Background(), "alice", id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrForbidden)
		}
	}
	require.Equal(t, 1, succeeded, "at most one exchange may be accepted per book")

	accepted := 0
	for _, id := range []string{"e1", "e2"} {
		switch repo.exchangeState(id).Status {
		case StatusAccepted:
			accepted++
		case StatusRejected:
		default:
			t.Fatalf("exchange %s left in %s", id, repo.exchangeState(id).Status)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, book.StatusExchanged, repo.bookState("b1").Status)
}

func TestService_Reject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reject returns book to available", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending}},
		)
		svc := NewService(repo)

		require.NoError(t, svc.Reject(ctx, "alice", "e1"))
		assert.Equal(t, StatusRejected, repo.exchangeState("e1").Status)
		assert.Equal(t, book.StatusAvailable, repo.bookState("b1").Status)

		// Another user can now request the book.
		_, err := svc.Request(ctx, "dave", "b1")
		assert.NoError(t, err)
	})

	t.Run("non-owner cannot reject", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending}},
		)
		svc := NewService(repo)

		assert.ErrorIs(t, svc.Reject(ctx, "carol", "e1"), ErrForbidden)
	})

	t.Run("reject of non-pending exchange is denied", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusCompleted}},
		)
		svc := NewService(repo)

		assert.ErrorIs(t, svc.Reject(ctx, "alice", "e1"), ErrForbidden)
	})
}

func TestService_Finalize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	acceptedSetup := func() (*Service, *fakeRepo) {
		b := availableBook("b1", "alice")
		b.Status = book.StatusExchanged
		repo := newFakeRepo(
			[]book.Book{b},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusAccepted}},
		)
		return NewService(repo), repo
	}

	t.Run("finalize transfers ownership", func(t *testing.T) {
		svc, repo := acceptedSetup()

		require.NoError(t, svc.Finalize(ctx, "alice", "e1"))
		assert.Equal(t, StatusCompleted, repo.exchangeState("e1").Status)
		assert.Equal(t, "carol", repo.bookState("b1").OwnerID)
		assert.Equal(t, book.StatusExchanged, repo.bookState("b1").Status)
	})

	t.Run("finalize is not idempotent", func(t *testing.T) {
		svc, _ := acceptedSetup()
		require.NoError(t, svc.Finalize(ctx, "alice", "e1"))

		// The new owner is the requester, so the old owner now fails
		// the ownership check; the status check would deny them anyway.
		assert.ErrorIs(t, svc.Finalize(ctx, "alice", "e1"), ErrForbidden)
	})

	t.Run("non-owner cannot finalize", func(t *testing.T) {
		svc, _ := acceptedSetup()
		assert.ErrorIs(t, svc.Finalize(ctx, "carol", "e1"), ErrForbidden)
	})

	t.Run("pending exchange cannot be finalized", func(t *testing.T) {
		repo := newFakeRepo(
			[]book.Book{availableBook("b1", "alice")},
			[]Exchange{{ID: "e1", BookID: "b1", RequesterID: "carol", Status: StatusPending}},
		)
		svc := NewService(repo)

		assert.ErrorIs(t, svc.Finalize(ctx, "alice", "e1"), ErrForbidden)
	})
}

func TestService_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("accept and finalize flow", func(t *testing.T) {
		repo := newFakeRepo([]book.Book{availableBook("b1", "alice")}, nil)
		svc := NewService(repo)

		e1, err := svc.Request(ctx, "carol", "b1")
		require.NoError(t, err)
		e2, err := svc.Request(ctx, "dave", "b1")
		require.NoError(t, err)

		require.NoError(t, svc.Accept(ctx, "alice", e1.ID))
		assert.Equal(t, StatusAccepted, repo.exchangeState(e1.ID).Status)
		assert.Equal(t, StatusRejected, repo.exchangeState(e2.ID).Status)
		assert.Equal(t, book.StatusExchanged, repo.bookState("b1").Status)

		require.NoError(t, svc.Finalize(ctx, "alice", e1.ID))
		assert.Equal(t, StatusCompleted, repo.exchangeState(e1.ID).Status)
		assert.Equal(t, "carol", repo.bookState("b1").OwnerID)
	})

	t.Run("reject reopens the book", func(t *testing.T) {
		repo := newFakeRepo([]book.Book{availableBook("b2", "alice")}, nil)
		svc := NewService(repo)

		e3, err := svc.Request(ctx, "carol", "b2")
		require.NoError(t, err)
		require.NoError(t, svc.Reject(ctx, "alice", e3.ID))
		assert.Equal(t, StatusRejected, repo.exchangeState(e3.ID).Status)
		assert.Equal(t, book.StatusAvailable, repo.bookState("b2").Status)

		_, err = svc.Request(ctx, "dave", "b2")
		assert.NoError(t, err)
	})
}

func TestService_ListForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newFakeRepo([]book.Book{availableBook("b1", "alice"), availableBook("b2", "carol")}, nil)
	svc := NewService(repo)

	first, err := svc.Request(ctx, "carol", "b1")
	require.NoError(t, err)
	second, err := svc.Request(ctx, "dave", "b1")
	require.NoError(t, err)
	out, err := svc.Request(ctx, "alice", "b2")
	require.NoError(t, err)

	mailbox, err := svc.ListForUser(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, mailbox.Incoming, 2)
	assert.Equal(t, second.ID, mailbox.Incoming[0].ID, "newest first")
	assert.Equal(t, first.ID, mailbox.Incoming[1].ID)
	require.Len(t, mailbox.Outgoing, 1)
	assert.Equal(t, out.ID, mailbox.Outgoing[0].ID)
}

func TestService_ActiveRequestFor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newFakeRepo([]book.Book{availableBook("b1", "alice")}, nil)
	svc := NewService(repo)

	active, err := svc.ActiveRequestFor(ctx, "carol", "b1")
	require.NoError(t, err)
	assert.Nil(t, active)

	ex, err := svc.Request(ctx, "carol", "b1")
	require.NoError(t, err)

	active, err = svc.ActiveRequestFor(ctx, "carol", "b1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, ex.ID, active.ID)
}
