package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
)

// ListProducts возвращает активные товары каталога с учётом фильтров.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ProductFilter{
		Category: q.Get("category"),
		InStock:  q.Get("inStock") == "true",
	}

	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid minPrice")
			return
		}
		filter.MinPrice = &v
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid maxPrice")
			return
		}
		filter.MaxPrice = &v
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		h.respondInternalError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"data": products,
		"meta": map[string]any{
			"total": len(products),
		},
	})
}

// GetProduct возвращает активный товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			h.respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.respondInternalError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}
