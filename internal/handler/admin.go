package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

func paginationParams(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) map[string]any {
	return map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": int64(math.Ceil(float64(total) / float64(limit))),
	}
}

// AdminStats возвращает сводные показатели для панели администратора.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// AdminOrders возвращает страницу заказов с фильтром по статусу.
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	status := r.URL.Query().Get("status")
	if status != "" && !model.OrderStatus(status).Valid() {
		h.respondErrorDetails(w, http.StatusBadRequest, "Invalid status", model.OrderStatuses())
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), status, page, limit)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": paginationMeta(page, limit, total),
	})
}

// AdminUsers возвращает страницу пользователей.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	users, total, err := h.service.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"users":      users,
		"pagination": paginationMeta(page, limit, total),
	})
}

// AdminProducts возвращает все товары, включая неактивные.
func (h *Handler) AdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAllProducts(r.Context())
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	h.respondJSON(w, http.StatusOK, products)
}

// AdminCreateProduct создаёт новый товар.
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": product,
	})
}

// AdminUpdateProduct частично обновляет товар.
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req model.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			h.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrProductNotFound):
			h.respondError(w, http.StatusNotFound, "Product not found")
		default:
			h.respondInternalError(w, err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}
