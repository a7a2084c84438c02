package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookswap/internal/book"
	"bookswap/internal/exchange"
)

type ExchangeHandler struct {
	exchanges ExchangeService
}

func NewExchangeHandler(exchanges ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges}
}

// writeExchangeError maps coordinator errors onto the wire. Every
// precondition failure and storage conflict comes out as the same
// forbidden response so callers learn nothing about other users'
// requests.
func writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchange.ErrForbidden), errors.Is(err, exchange.ErrConflict):
		JSONError(w, http.StatusForbidden, "FORBIDDEN", "Cannot perform this action", nil)
	case errors.Is(err, exchange.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "Exchange not found", nil)
	case errors.Is(err, book.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

type requestExchangeReq struct {
	BookID string `json:"book_id" validate:"required"`
}

// Request asks the owner of a book for an exchange.
func (h *ExchangeHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestExchangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	ex, err := h.exchanges.Request(r.Context(), UserIDFrom(r), req.BookID)
	if err != nil {
		writeExchangeError(w, err)
		return
	}
	JSONSuccessCreated(w, ex)
}

// Accept approves a pending request for a book the caller owns.
func (h *ExchangeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if err := h.exchanges.Accept(r.Context(), UserIDFrom(r), r.PathValue("id")); err != nil {
		writeExchangeError(w, err)
		return
	}
	JSONSuccessNoContent(w)
}

// Reject declines a pending request for a book the caller owns.
func (h *ExchangeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.exchanges.Reject(r.Context(), UserIDFrom(r), r.PathValue("id")); err != nil {
		writeExchangeError(w, err)
		return
	}
	JSONSuccessNoContent(w)
}

// Finalize completes an accepted request, handing the book over.
func (h *ExchangeHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	if err := h.exchanges.Finalize(r.Context(), UserIDFrom(r), r.PathValue("id")); err != nil {
		writeExchangeError(w, err)
		return
	}
	JSONSuccessNoContent(w)
}

// List returns the caller's incoming and outgoing exchanges.
func (h *ExchangeHandler) List(w http.ResponseWriter, r *http.Request) {
	mailbox, err := h.exchanges.ListForUser(r.Context(), UserIDFrom(r))
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, mailbox, nil)
}
