package book

import (
	"context"
	"errors"
	"strings"
)

// ErrValidation is returned when a listing is missing required fields.
var ErrValidation = errors.New("invalid book listing")

// Service provides listing business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields a user supplies when listing a book.
type CreateInput struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	Condition   Condition
}

// Create lists a new book for the given owner. New listings always
// start out Available.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" || ownerID == "" {
		return Book{}, ErrValidation
	}
	if in.Condition == "" {
		in.Condition = ConditionNew
	}
	switch in.Condition {
	case ConditionNew, ConditionGood, ConditionFair, ConditionDamaged:
	default:
		return Book{}, ErrValidation
	}

	newBook := &Book{
		Title:       in.Title,
		Author:      in.Author,
		ISBN:        strings.TrimSpace(in.ISBN),
		Description: in.Description,
		Condition:   in.Condition,
		Status:      StatusAvailable,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, newBook); err != nil {
		return Book{}, err
	}
	return *newBook, nil
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAvailable returns books open to new exchange requests, newest
// first.
func (s *Service) ListAvailable(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.ListAvailable(ctx, q)
}

// ListOwnedBy returns all of one user's listings regardless of status,
// newest first.
func (s *Service) ListOwnedBy(ctx context.Context, ownerID string, q Query) ([]Book, int, error) {
	return s.repo.ListOwnedBy(ctx, ownerID, q)
}
