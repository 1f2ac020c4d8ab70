// Package handler содержит HTTP-обработчики API сервиса магазина.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/evxeen/shop-backend/internal/middleware"
	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/telegram"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, email, password, phone, referralCode string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	TelegramLogin(ctx context.Context, data telegram.LoginData, referralCode string) (*model.User, bool, error)

	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (*model.Product, error)

	CreateOrder(ctx context.Context, req model.NewOrder, user *model.User) (*model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error)

	GetReferralStats(ctx context.Context, userID int64) (*model.ReferralStats, error)
	GetBonusHistory(ctx context.Context, userID int64) ([]model.BonusTransaction, error)

	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
}

// Handler реализует HTTP-обработчики API сервиса магазина.
type Handler struct {
	service   Service
	logger    *zap.Logger
	auth      *middleware.AuthMiddleware
	devMode   bool
	startedAt time.Time
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, devMode bool) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		auth:      auth,
		devMode:   devMode,
		startedAt: time.Now(),
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) respondErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	h.respondJSON(w, status, errorResponse{Error: msg, Details: details})
}

// respondInternalError логирует ошибку и скрывает подробности от клиента
// вне режима разработки.
func (h *Handler) respondInternalError(w http.ResponseWriter, err error) {
	h.logger.Error("internal error", zap.Error(err))

	if h.devMode {
		h.respondErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	h.respondError(w, http.StatusInternalServerError, "Internal server error")
}

// Index возвращает метаданные API.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Vape Shop API is running!",
		"endpoints": map[string]any{
			"products": map[string]string{
				"getAll":  "GET /api/products",
				"getById": "GET /api/products/{id}",
			},
			"orders": map[string]string{
				"create":       "POST /api/orders",
				"getAll":       "GET /api/orders",
				"updateStatus": "PATCH /api/orders/{id}/status",
			},
			"auth": map[string]string{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
				"telegram": "POST /api/auth/telegram",
			},
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health возвращает состояние сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"uptime":    time.Since(h.startedAt).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
