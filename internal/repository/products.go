package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/evxeen/shop-backend/internal/model"
)

const productColumns = `id, name, description, price, stock, category, image_url, is_active, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock,
		&p.Category, &p.ImageURL, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Price = fromCents(price)
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListProducts возвращает активные товары с учётом фильтров каталога.
func (r *PostgresRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		conds = []string{"is_active"}
		args  []any
	)

	if f.Category != "" {
		args = append(args, "%"+f.Category+"%")
		conds = append(conds, "category ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, toCents(*f.MinPrice))
		conds = append(conds, "price >= $"+strconv.Itoa(len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, toCents(*f.MaxPrice))
		conds = append(conds, "price <= $"+strconv.Itoa(len(args)))
	}
	if f.InStock {
		conds = append(conds, "stock > 0")
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return scanProducts(rows)
}

// GetProduct возвращает активный товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND is_active`, id))
}

// ListAllProducts возвращает все товары, включая неактивные.
func (r *PostgresRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select all products: %w", err)
	}

	return scanProducts(rows)
}

// CreateProduct создаёт новый товар.
func (r *PostgresRepository) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, stock, category, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+productColumns,
		in.Name, in.Description, toCents(in.Price), in.Stock, in.Category, in.ImageURL,
	))
}

// UpdateProduct частично обновляет товар: nil-поля сохраняют прежние значения.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (*model.Product, error) {
	var priceCents *int64
	if upd.Price != nil {
		v := toCents(*upd.Price)
		priceCents = &v
	}

	return scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products SET
		     name        = COALESCE($2, name),
		     description = COALESCE($3, description),
		     price       = COALESCE($4, price),
		     stock       = COALESCE($5, stock),
		     category    = COALESCE($6, category),
		     image_url   = COALESCE($7, image_url),
		     is_active   = COALESCE($8, is_active)
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, upd.Name, upd.Description, priceCents, upd.Stock, upd.Category, upd.ImageURL, upd.IsActive,
	))
}
