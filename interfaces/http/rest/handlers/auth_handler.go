package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"booklib-backend/application/services"
	"booklib-backend/pkg/auth"
	"booklib-backend/pkg/common"
	pkgerrors "booklib-backend/pkg/errors"
	"booklib-backend/pkg/utils"
)

// AuthHandler handles registration, login, logout and account removal
type AuthHandler struct {
	accounts *services.AccountService
	sessions *auth.SessionManager
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *services.AccountService, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		errors:   pkgerrors.NewErrorHandler(logger),
		logger:   logger,
	}
}

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=20"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	token, err := h.sessions.Issue(user.ID, user.Username)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("failed to create session").WithCause(err))
		return
	}
	h.sessions.SetCookie(w, token)

	common.RespondJSON(w, http.StatusOK, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// DeleteAccount handles DELETE /account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.sessions.ClearCookie(w)
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
