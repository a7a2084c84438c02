package book

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Status tracks where a book sits in its exchange lifecycle. It is an
// extra layer of safety against two users acquiring the same copy.
type Status string

const (
	StatusAvailable       Status = "AVAILABLE"
	StatusPendingExchange Status = "PENDING_EXCHANGE"
	StatusExchanged       Status = "EXCHANGED"
)

// Condition describes the physical state of a listed copy. Display
// only; it never drives a transition.
type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
	ConditionDamaged Condition = "DAMAGED"
)

// Book represents one specific copy owned by a user.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn,omitempty"`
	Description string    `json:"description,omitempty"`
	Condition   Condition `json:"condition"`
	Status      Status    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Query defines filters and pagination for listing books. Q matches
// title or author as a substring, or the ISBN exactly, all
// case-insensitive.
type Query struct {
	Q            string
	ExcludeOwner string
	Limit        int
	Offset       int
}
