package exchange

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a referenced exchange does not exist.
	ErrNotFound = errors.New("exchange not found")

	// ErrForbidden is the uniform answer to every failed transition
	// precondition. The caller is told nothing about which check
	// failed, so the response cannot be used to probe another user's
	// requests.
	ErrForbidden = errors.New("cannot perform this action")

	// ErrConflict is returned when a storage constraint rejects a
	// write that raced with a concurrent transition. Callers surface
	// it exactly like ErrForbidden.
	ErrConflict = errors.New("conflicting exchange request")
)

// Status is the lifecycle state of one exchange request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	// StatusCompleted means the lister has handed the book over and
	// ownership has transferred. Terminal, as is Rejected.
	StatusCompleted Status = "COMPLETED"
)

// Exchange is one user's request to acquire one book from its owner.
type Exchange struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	RequesterID string    `json:"requester_id"`
	Status      Status    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`

	// Populated by list queries for display.
	BookTitle   string `json:"book_title,omitempty"`
	BookOwnerID string `json:"book_owner_id,omitempty"`
}

// Mailbox groups a user's exchanges by role: incoming requests target
// books the user owns, outgoing ones are requests the user made.
type Mailbox struct {
	Incoming []Exchange `json:"incoming"`
	Outgoing []Exchange `json:"outgoing"`
}
