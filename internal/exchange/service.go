package exchange

import (
	"context"
	"errors"
	"log"

	"bookswap/internal/book"

	"github.com/google/uuid"
)

// Service is the exchange coordinator. Each public method is one
// transition of the per-book state machine and runs as a single
// transaction: the book row is locked first, preconditions are checked
// against the locked state, and all writes commit together. When two
// transitions race, one sees the pre-transition state and wins; the
// other re-reads the committed state and fails its precondition.
type Service struct {
	repo Repository
}

// NewService creates a new exchange coordinator.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Request creates a Pending exchange for the given book on behalf of
// actor. The book itself is untouched; it stays Available so other
// users may still request it until the owner accepts someone.
func (s *Service) Request(ctx context.Context, actorID, bookID string) (Exchange, error) {
	var result Exchange

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		target, err := s.repo.GetBookForUpdate(txCtx, bookID)
		if err != nil {
			return err
		}

		// Owners cannot request a book they already have.
		if target.OwnerID == actorID {
			return s.deny("request", actorID, bookID, "actor owns the book")
		}

		active, err := s.repo.FindActive(txCtx, bookID, actorID)
		if err != nil {
			return err
		}
		if active != nil {
			return s.deny("request", actorID, bookID, "duplicate active request")
		}

		if target.Status != book.StatusAvailable {
			return s.deny("request", actorID, bookID, "book not available")
		}

		ex := &Exchange{
			ID:          uuid.NewString(),
			BookID:      bookID,
			RequesterID: actorID,
			Status:      StatusPending,
		}
		if err := s.repo.Create(txCtx, ex); err != nil {
			// The partial unique index closed a duplicate-submission
			// race that the FindActive check missed.
			if errors.Is(err, ErrConflict) {
				return s.deny("request", actorID, bookID, "duplicate lost insert race")
			}
			return err
		}

		result = *ex
		return nil
	})
	if err != nil {
		return Exchange{}, err
	}
	return result, nil
}

// Accept approves a Pending request. Atomically with the acceptance,
// the book is marked Exchanged and every other Pending request for it
// is Rejected, so at most one Accepted exchange can ever exist per
// book.
//
// The book is marked Exchanged here rather than at Finalize; ownership
// still only moves at Finalize. Kept as-is so an accepted book drops
// out of the available listings immediately.
func (s *Service) Accept(ctx context.Context, actorID, exchangeID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ex, err := s.repo.GetExchangeForUpdate(txCtx, exchangeID)
		if err != nil {
			return err
		}
		target, err := s.repo.GetBookForUpdate(txCtx, ex.BookID)
		if err != nil {
			return err
		}

		if target.OwnerID != actorID {
			return s.deny("accept", actorID, exchangeID, "actor is not the owner")
		}
		if ex.Status != StatusPending {
			return s.deny("accept", actorID, exchangeID, "exchange not pending")
		}

		if err := s.repo.UpdateStatus(txCtx, ex.ID, StatusAccepted); err != nil {
			return err
		}
		if err := s.repo.SetBookStatus(txCtx, ex.BookID, book.StatusExchanged); err != nil {
			return err
		}
		return s.repo.RejectOtherPending(txCtx, ex.BookID, ex.ID)
	})
}

// Reject declines a Pending request and returns the book to Available.
func (s *Service) Reject(ctx context.Context, actorID, exchangeID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ex, err := s.repo.GetExchangeForUpdate(txCtx, exchangeID)
		if err != nil {
			return err
		}
		target, err := s.repo.GetBookForUpdate(txCtx, ex.BookID)
		if err != nil {
			return err
		}

		if target.OwnerID != actorID {
			return s.deny("reject", actorID, exchangeID, "actor is not the owner")
		}
		if ex.Status != StatusPending {
			return s.deny("reject", actorID, exchangeID, "exchange not pending")
		}

		if err := s.repo.UpdateStatus(txCtx, ex.ID, StatusRejected); err != nil {
			return err
		}
		return s.repo.SetBookStatus(txCtx, ex.BookID, book.StatusAvailable)
	})
}

// Finalize completes an Accepted exchange: the requester becomes the
// book's owner. Not idempotent; a second call finds the exchange
// Completed and is denied.
func (s *Service) Finalize(ctx context.Context, actorID, exchangeID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ex, err := s.repo.GetExchangeForUpdate(txCtx, exchangeID)
		if err != nil {
			return err
		}
		target, err := s.repo.GetBookForUpdate(txCtx, ex.BookID)
		if err != nil {
			return err
		}

		if target.OwnerID != actorID {
			return s.deny("finalize", actorID, exchangeID, "actor is not the owner")
		}
		if ex.Status != StatusAccepted {
			return s.deny("finalize", actorID, exchangeID, "exchange not accepted")
		}

		if err := s.repo.UpdateStatus(txCtx, ex.ID, StatusCompleted); err != nil {
			return err
		}
		return s.repo.TransferBookOwner(txCtx, ex.BookID, ex.RequesterID)
	})
}

// ListForUser returns the user's exchanges split by role, newest
// first. A user never appears in both roles for one exchange because
// Request refuses owners, but they may well have entries on both
// sides across different books.
func (s *Service) ListForUser(ctx context.Context, userID string) (Mailbox, error) {
	incoming, err := s.repo.ListByBookOwner(ctx, userID)
	if err != nil {
		return Mailbox{}, err
	}
	outgoing, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return Mailbox{}, err
	}
	return Mailbox{Incoming: incoming, Outgoing: outgoing}, nil
}

// ActiveRequestFor returns the user's own Pending or Accepted exchange
// for a book, if any, for the book detail view.
func (s *Service) ActiveRequestFor(ctx context.Context, userID, bookID string) (*Exchange, error) {
	return s.repo.FindActive(ctx, bookID, userID)
}

// deny logs the real reason for observability and hands the caller the
// uniform error.
func (s *Service) deny(op, actorID, targetID, reason string) error {
	log.Printf("exchange: denied %s by %s on %s: %s", op, actorID, targetID, reason)
	return ErrForbidden
}
