package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/evxeen/shop-backend/internal/model"
)

const (
	// Процент лояльности от суммы заказа.
	loyaltyPercent = 5
	// Фиксированный реферальный бонус в копейках (5 рублей).
	referralBonusCents = 500
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// priceQuote описывает состояние товара, прочитанное под блокировкой строки.
type priceQuote struct {
	name       string
	priceCents int64
	stock      int
}

// orderLine описывает строку заказа с ценой, зафиксированной на момент покупки.
type orderLine struct {
	productID  int64
	quantity   int
	priceCents int64
}

// buildOrderLines сверяет позиции с остатками и возвращает строки заказа
// с зафиксированными ценами и сумму заказа в копейках. Нехватка остатка по
// любой позиции отменяет заказ целиком, ничего не возвращая.
func buildOrderLines(items []model.NewOrderItem, quotes []priceQuote) ([]orderLine, int64, error) {
	var totalCents int64
	lines := make([]orderLine, 0, len(items))

	for i, item := range items {
		q := quotes[i]
		if q.stock < item.Quantity {
			return nil, 0, fmt.Errorf("%w for %s, available: %d", ErrInsufficientStock, q.name, q.stock)
		}

		totalCents += q.priceCents * int64(item.Quantity)
		lines = append(lines, orderLine{
			productID:  item.ProductID,
			quantity:   item.Quantity,
			priceCents: q.priceCents,
		})
	}

	return lines, totalCents, nil
}

// loyaltyBonusCents считает бонус лояльности от суммы заказа
// с округлением до копейки.
func loyaltyBonusCents(totalCents int64) int64 {
	return int64(math.Round(float64(totalCents) * loyaltyPercent / 100))
}

// CreateOrder атомарно создаёт заказ: проверяет остатки, фиксирует цены позиций,
// списывает остатки и начисляет бонус лояльности авторизованному покупателю.
// Любая ошибка откатывает все изменения целиком.
func (r *PostgresRepository) CreateOrder(ctx context.Context, req model.NewOrder) (*model.Order, error) {
	var orderID int64

	err := r.withRetry(ctx, func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			// Сначала проверяем все позиции, только потом пишем:
			// заказ применяется целиком или не применяется вовсе.
			quotes := make([]priceQuote, 0, len(req.Items))
			for _, item := range req.Items {
				var q priceQuote
				err := tx.QueryRow(ctx,
					`SELECT name, price, stock FROM products WHERE id = $1 FOR UPDATE`,
					item.ProductID,
				).Scan(&q.name, &q.priceCents, &q.stock)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return fmt.Errorf("%w: id %d", ErrProductNotFound, item.ProductID)
					}
					return fmt.Errorf("select product for order: %w", err)
				}
				quotes = append(quotes, q)
			}

			lines, totalCents, err := buildOrderLines(req.Items, quotes)
			if err != nil {
				return err
			}

			var customerEmail *string
			if req.CustomerEmail != "" {
				customerEmail = &req.CustomerEmail
			}

			err = tx.QueryRow(ctx,
				`INSERT INTO orders (customer_name, customer_phone, customer_email, address, total_price, status, user_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING id`,
				req.CustomerName, req.CustomerPhone, customerEmail, req.Address,
				totalCents, string(model.OrderStatusPending), req.UserID,
			).Scan(&orderID)
			if err != nil {
				return fmt.Errorf("insert order: %w", err)
			}

			for _, l := range lines {
				_, err := tx.Exec(ctx,
					`INSERT INTO order_items (order_id, product_id, quantity, price)
					 VALUES ($1, $2, $3, $4)`,
					orderID, l.productID, l.quantity, l.priceCents,
				)
				if err != nil {
					return fmt.Errorf("insert order item: %w", err)
				}

				tag, err := tx.Exec(ctx,
					`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
					l.productID, l.quantity,
				)
				if err != nil {
					return fmt.Errorf("decrement stock: %w", err)
				}
				if tag.RowsAffected() != 1 {
					return fmt.Errorf("%w: product %d", ErrInsufficientStock, l.productID)
				}
			}

			if req.UserID != nil {
				bonusCents := loyaltyBonusCents(totalCents)

				_, err := tx.Exec(ctx,
					`UPDATE users SET
					     bonus_balance = bonus_balance + $2,
					     total_spent   = total_spent + $3,
					     orders_count  = orders_count + 1
					 WHERE id = $1`,
					*req.UserID, bonusCents, totalCents,
				)
				if err != nil {
					return fmt.Errorf("update user counters: %w", err)
				}

				_, err = tx.Exec(ctx,
					`INSERT INTO bonus_transactions (user_id, amount, type, order_id, description)
					 VALUES ($1, $2, $3, $4, $5)`,
					*req.UserID, bonusCents, string(model.BonusTypeLoyalty), orderID,
					fmt.Sprintf("Начислено 5%% бонусов с заказа #%d", orderID),
				)
				if err != nil {
					return fmt.Errorf("insert loyalty transaction: %w", err)
				}
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return r.GetOrderByID(ctx, orderID)
}

// GetOrderByID возвращает заказ с позициями и данными товаров.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
		 FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, r.pool, []*model.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o     model.Order
		total int64
	)
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.Address, &total, &o.Status, &o.UserID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.TotalPrice = fromCents(total)
	o.Items = []model.OrderItem{}
	return &o, nil
}

// attachItems загружает позиции и товары для набора заказов одним запросом.
func (r *PostgresRepository) attachItems(ctx context.Context, q querier, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*model.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		        p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url, p.is_active, p.created_at
		 FROM order_items oi
		 JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         model.OrderItem
			orderID      int64
			itemPrice    int64
			product      model.Product
			productPrice int64
		)
		err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.Quantity, &itemPrice,
			&product.ID, &product.Name, &product.Description, &productPrice, &product.Stock,
			&product.Category, &product.ImageURL, &product.IsActive, &product.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}

		item.Price = fromCents(itemPrice)
		product.Price = fromCents(productPrice)
		item.Product = &product

		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) selectOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	res := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		res = append(res, *o)
	}

	return res, nil
}

// GetAllOrders возвращает все заказы, новые первыми.
func (r *PostgresRepository) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
		 FROM orders ORDER BY created_at DESC`)
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListOrders возвращает страницу заказов с опциональным фильтром по статусу
// и общее количество подходящих заказов.
func (r *PostgresRepository) ListOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	offset := (page - 1) * limit

	var (
		orders []model.Order
		total  int64
		err    error
	)

	if status != "" {
		orders, err = r.selectOrders(ctx,
			`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
			 FROM orders WHERE status = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
			status, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1`, status).Scan(&total)
	} else {
		orders, err = r.selectOrders(ctx,
			`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
			 FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
			offset, limit)
		if err != nil {
			return nil, 0, err
		}
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus обновляет статус заказа и возвращает заказ целиком.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrOrderNotFound
	}

	return r.GetOrderByID(ctx, id)
}

// AwardReferralBonus начисляет фиксированный реферальный бонус пригласившему
// пользователю за доставленный заказ приглашённого. Возвращает false без ошибки,
// если у покупателя нет реферера или бонус за этот заказ уже начислен.
func (r *PostgresRepository) AwardReferralBonus(ctx context.Context, orderID, referredUserID int64) (bool, error) {
	credited := false

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var referrerID *int64
		err := tx.QueryRow(ctx,
			`SELECT referrer_id FROM users WHERE id = $1`, referredUserID,
		).Scan(&referrerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("select referrer: %w", err)
		}

		if referrerID == nil {
			return nil
		}

		// Блокируем строку реферера для сериализации изменений баланса.
		var dummy int
		err = tx.QueryRow(ctx,
			`SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, *referrerID,
		).Scan(&dummy)
		if err != nil {
			return fmt.Errorf("lock referrer for update: %w", err)
		}

		// Частичный уникальный индекс гарантирует не более одного
		// реферального начисления на заказ: повторная доставка — no-op.
		tag, err := tx.Exec(ctx,
			`INSERT INTO bonus_transactions (user_id, amount, type, order_id, description)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (order_id) WHERE type = 'referral_bonus' DO NOTHING`,
			*referrerID, int64(referralBonusCents), string(model.BonusTypeReferral), orderID,
			fmt.Sprintf("Бонус за приглашённого друга (ID: %d)", referredUserID),
		)
		if err != nil {
			return fmt.Errorf("insert referral transaction: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET bonus_balance = bonus_balance + $2 WHERE id = $1`,
			*referrerID, int64(referralBonusCents),
		)
		if err != nil {
			return fmt.Errorf("update referrer balance: %w", err)
		}

		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return credited, nil
}

// DashboardStats собирает сводные показатели для админской панели.
func (r *PostgresRepository) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	var revenueCents int64
	err := r.pool.QueryRow(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM orders),
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM products),
		    (SELECT COALESCE(SUM(total_price), 0) FROM orders)`,
	).Scan(&stats.Stats.TotalOrders, &stats.Stats.TotalUsers, &stats.Stats.TotalProducts, &revenueCents)
	if err != nil {
		return nil, fmt.Errorf("select totals: %w", err)
	}
	stats.Stats.TotalRevenue = fromCents(revenueCents)

	recent, err := r.selectOrders(ctx,
		`SELECT id, customer_name, customer_phone, customer_email, address, total_price, status, user_id, created_at
		 FROM orders ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		return nil, err
	}
	stats.RecentOrders = recent

	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url, p.is_active, p.created_at,
		        s.total_sold
		 FROM (
		     SELECT product_id, SUM(quantity) AS total_sold
		     FROM order_items
		     GROUP BY product_id
		     ORDER BY total_sold DESC
		     LIMIT 5
		 ) s
		 JOIN products p ON p.id = s.product_id
		 ORDER BY s.total_sold DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select popular products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pp    model.PopularProduct
			price int64
		)
		err := rows.Scan(&pp.ID, &pp.Name, &pp.Description, &price, &pp.Stock,
			&pp.Category, &pp.ImageURL, &pp.IsActive, &pp.CreatedAt, &pp.TotalSold)
		if err != nil {
			return nil, fmt.Errorf("scan popular product: %w", err)
		}
		pp.Price = fromCents(price)
		stats.PopularProducts = append(stats.PopularProducts, pp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}
