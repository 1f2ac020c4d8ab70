package service

import (
	"context"
	"fmt"

	"github.com/evxeen/shop-backend/internal/model"
)

// ListProducts возвращает активные товары с учётом фильтров каталога.
func (s *Service) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, f)
}

// GetProduct возвращает активный товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListAllProducts возвращает все товары, включая неактивные.
func (s *Service) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListAllProducts(ctx)
}

// CreateProduct создаёт новый товар.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	return s.repo.CreateProduct(ctx, in)
}

// UpdateProduct частично обновляет товар.
func (s *Service) UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (*model.Product, error) {
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if upd.Stock != nil && *upd.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	return s.repo.UpdateProduct(ctx, id, upd)
}
