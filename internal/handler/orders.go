package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evxeen/shop-backend/internal/middleware"
	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/service"
	"github.com/evxeen/shop-backend/internal/validation"
)

type createOrderRequest struct {
	CustomerName  string               `json:"customerName"`
	CustomerPhone string               `json:"customerPhone"`
	CustomerEmail string               `json:"customerEmail"`
	Address       string               `json:"address"`
	Items         []model.NewOrderItem `json:"items"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

// CreateOrder оформляет заказ. Запрос без токена создаёт гостевой заказ,
// с токеном заказ привязывается к пользователю.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.ValidateOrderRequest(req.CustomerName, req.CustomerPhone, req.Address, req.Items); len(problems) > 0 {
		h.respondErrorDetails(w, http.StatusBadRequest, "Validation failed", problems)
		return
	}

	user, _ := middleware.GetUserFromContext(r.Context())

	order, err := h.service.CreateOrder(r.Context(), model.NewOrder{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Items:         req.Items,
	}, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			h.respondError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, repository.ErrProductNotFound):
			h.respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, repository.ErrInsufficientStock):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, orderResponse{
		Message: "Order created successfully",
		Order:   order,
	})
}

// GetAllOrders возвращает все заказы, новые первыми.
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetAllOrders(r.Context())
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	h.respondJSON(w, http.StatusOK, orders)
}

// GetMyOrders возвращает заказы текущего пользователя.
func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), user.ID)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	h.respondJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus изменяет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			h.respondErrorDetails(w, http.StatusBadRequest, "Invalid status", model.OrderStatuses())
		case errors.Is(err, repository.ErrOrderNotFound):
			h.respondError(w, http.StatusNotFound, "Order not found")
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, orderResponse{
		Message: "Order status updated",
		Order:   order,
	})
}
