package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookswap/internal/book"
)

type BookHandler struct {
	books     BookService
	exchanges ExchangeService
}

func NewBookHandler(books BookService, exchanges ExchangeService) *BookHandler {
	return &BookHandler{books: books, exchanges: exchanges}
}

func listQuery(r *http.Request) (book.Query, int, int) {
	q := book.Query{
		Q: r.URL.Query().Get("q"),
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize
	return q, page, pageSize
}

func listMeta(page, pageSize, total int) map[string]interface{} {
	return map[string]interface{}{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
}

// List returns available listings. Authenticated viewers do not see
// their own books here.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q, page, pageSize := listQuery(r)
	q.ExcludeOwner = UserIDFrom(r)

	books, total, err := h.books.ListAvailable(r.Context(), q)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, books, listMeta(page, pageSize, total))
}

// Owned returns the caller's own listings, whatever their status.
func (h *BookHandler) Owned(w http.ResponseWriter, r *http.Request) {
	q, page, pageSize := listQuery(r)

	books, total, err := h.books.ListOwnedBy(r.Context(), UserIDFrom(r), q)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, books, listMeta(page, pageSize, total))
}

// Get returns a book plus, for authenticated viewers, their own active
// exchange request for it.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b, err := h.books.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	data := map[string]any{"book": b}
	if userID := UserIDFrom(r); userID != "" {
		active, err := h.exchanges.ActiveRequestFor(r.Context(), userID, id)
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		if active != nil {
			data["active_request"] = active
		}
	}
	JSONSuccess(w, data, nil)
}

type createBookReq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	ISBN        string `json:"isbn" validate:"omitempty,isbn"`
	Description string `json:"description"`
	Condition   string `json:"condition" validate:"omitempty,oneof=NEW GOOD FAIR DAMAGED"`
}

// Create lists a new book owned by the caller.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	created, err := h.books.Create(r.Context(), UserIDFrom(r), book.CreateInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
		Condition:   book.Condition(req.Condition),
	})
	if err != nil {
		if errors.Is(err, book.ErrValidation) {
			JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	JSONSuccessCreated(w, created)
}
