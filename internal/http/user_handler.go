package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"playlater/internal/apperr"
	"playlater/internal/auth"
	"playlater/internal/entity"
	"playlater/internal/httpx"
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	GetByID(ctx context.Context, id string) (entity.User, error)
}

type UserHandler struct {
	repo   UserRepository
	secret string
}

func NewUserHandler(repo UserRepository, secret string) *UserHandler {
	return &UserHandler{repo: repo, secret: secret}
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password_strength"`
}

// @Summary Register new user
// @Description Create a new user account
// @Tags users
// @Accept json
// @Produce json
// @Param user body registerReq true "User registration data"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /users/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	_, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err == nil {
		httpx.JSONError(r, w, http.StatusConflict, "ALREADY_EXISTS", "Email already exists", nil)
		return
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		httpx.JSONError(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.JSONError(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	newUser := &entity.User{
		Email:    req.Email,
		Username: req.Username,
		Password: hashedPassword,
		Role:     "USER",
	}
	if err := h.repo.Create(r.Context(), newUser); err != nil {
		httpx.JSONError(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessCreated(r, w, map[string]any{
		"id":       newUser.ID,
		"email":    newUser.Email,
		"username": newUser.Username,
		"role":     newUser.Role,
	})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// @Summary Login user
// @Description Authenticate and issue a bearer token
// @Tags users
// @Accept json
// @Produce json
// @Param login body loginReq true "Login credentials"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /users/login [post]
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	user, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.VerifyPassword(user.Password, req.Password) {
		// Same response for unknown email and wrong password.
		httpx.JSONError(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
		return
	}

	token, err := auth.GenerateToken(h.secret, user.ID, user.Role, 24*time.Hour)
	if err != nil {
		httpx.JSONError(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(r, w, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
			"role":     user.Role,
		},
	}, nil)
}

// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	user, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccess(r, w, user, nil)
}
