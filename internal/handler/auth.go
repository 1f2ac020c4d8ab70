package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evxeen/shop-backend/internal/middleware"
	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/service"
	"github.com/evxeen/shop-backend/internal/telegram"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referralCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type telegramLoginRequest struct {
	telegram.LoginData
	ReferralCode string `json:"referralCode"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

// Register обрабатывает регистрацию пользователя по email и паролю.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Email, req.Password, req.Phone, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsRequired):
			h.respondError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, service.ErrPasswordTooShort):
			h.respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		case errors.Is(err, repository.ErrUserExists):
			h.respondError(w, http.StatusBadRequest, "User already exists")
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

// Login обрабатывает вход по email и паролю.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsRequired):
			h.respondError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.respondError(w, http.StatusBadRequest, "Invalid credentials")
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// TelegramLogin обрабатывает вход через Telegram Login Widget.
func (h *Handler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	var req telegramLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, created, err := h.service.TelegramLogin(r.Context(), req.LoginData, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, telegram.ErrNotConfigured):
			h.respondError(w, http.StatusServiceUnavailable, "Telegram login is not configured")
		case errors.Is(err, telegram.ErrInvalidSignature), errors.Is(err, telegram.ErrExpired):
			h.respondError(w, http.StatusBadRequest, "Invalid Telegram data")
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	status := http.StatusOK
	message := "Login successful"
	if created {
		status = http.StatusCreated
		message = "User registered successfully"
	}

	h.respondJSON(w, status, authResponse{
		Message: message,
		User:    user,
		Token:   token,
	})
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}
