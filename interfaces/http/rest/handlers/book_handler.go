package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"booklib-backend/application/services"
	"booklib-backend/domain"
	"booklib-backend/pkg/common"
	pkgerrors "booklib-backend/pkg/errors"
	"booklib-backend/pkg/utils"
)

// BookHandler handles the caller's library of books
type BookHandler struct {
	library *services.LibraryService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(library *services.LibraryService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		library: library,
		errors:  pkgerrors.NewErrorHandler(logger),
		logger:  logger,
	}
}

// AddBookRequest represents the request body for adding a book
type AddBookRequest struct {
	ISBN          string `json:"isbn" validate:"required,min=10,max=17"`
	Title         string `json:"title,omitempty" validate:"omitempty,max=200"`
	Author        string `json:"author,omitempty" validate:"omitempty,max=100"`
	Genre         string `json:"genre,omitempty" validate:"omitempty,max=100"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url,max=500"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=not-started in-progress finished"`
	Rating        *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// UpdateBookRequest represents the request body for editing a library row
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Author        *string `json:"author,omitempty" validate:"omitempty,max=100"`
	Genre         *string `json:"genre,omitempty" validate:"omitempty,max=100"`
	CoverImageURL *string `json:"cover_image_url,omitempty" validate:"omitempty,url,max=500"`
	Description   *string `json:"description,omitempty"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=not-started in-progress finished"`
	Rating        *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	ClearRating   bool    `json:"clear_rating,omitempty"`
}

// List handles GET /books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	entries, err := h.library.ListBooks(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, entries)
}

// Add handles POST /books
func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	entry, err := h.library.AddBook(r.Context(), userID, services.AddBookInput{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		CoverImageURL: req.CoverImageURL,
		Description:   req.Description,
		Status:        domain.ReadingStatus(req.Status),
		Rating:        req.Rating,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, entry)
}

// Get handles GET /books/{userBookID}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	entry, err := h.library.GetEntry(r.Context(), userID, chi.URLParam(r, "userBookID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, entry)
}

// Update handles PUT /books/{userBookID}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	input := services.UpdateEntryInput{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		CoverImageURL: req.CoverImageURL,
		Description:   req.Description,
		Rating:        req.Rating,
		ClearRating:   req.ClearRating,
	}
	if req.Status != nil {
		status := domain.ReadingStatus(*req.Status)
		input.Status = &status
	}

	entry, err := h.library.UpdateEntry(r.Context(), userID, chi.URLParam(r, "userBookID"), input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /books/{userBookID}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	if err := h.library.DeleteEntry(r.Context(), userID, chi.URLParam(r, "userBookID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}
