package handler

import (
	"net/http"

	"github.com/evxeen/shop-backend/internal/middleware"
)

// ReferralStats возвращает реферальную статистику текущего пользователя.
func (h *Handler) ReferralStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	stats, err := h.service.GetReferralStats(r.Context(), user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// BonusHistory возвращает последние бонусные начисления текущего пользователя.
func (h *Handler) BonusHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	history, err := h.service.GetBonusHistory(r.Context(), user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, history)
}
