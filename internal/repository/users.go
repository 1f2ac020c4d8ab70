package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/evxeen/shop-backend/internal/model"
)

const userColumns = `id, email, phone, telegram_id, username, name, password_hash, role,
	bonus_balance, total_spent, orders_count, referral_code, referrer_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u          model.User
		balance    int64
		totalSpent int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.TelegramID, &u.Username, &u.Name,
		&u.PasswordHash, &u.Role, &balance, &totalSpent, &u.OrdersCount,
		&u.ReferralCode, &u.ReferrerID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.BonusBalance = fromCents(balance)
	u.TotalSpent = fromCents(totalSpent)
	return &u, nil
}

// NewUser описывает данные для создания пользователя.
type NewUser struct {
	Email        *string
	Phone        *string
	TelegramID   *string
	Username     *string
	PasswordHash []byte
	ReferralCode string
	ReferrerID   *int64
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, nu NewUser) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, phone, telegram_id, username, password_hash, referral_code, referrer_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		nu.Email, nu.Phone, nu.TelegramID, nu.Username, nu.PasswordHash, nu.ReferralCode, nu.ReferrerID,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_referral_code_key") {
			return nil, ErrReferralCodeTaken
		}
		if isUniqueViolation(err, "") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByTelegramID возвращает пользователя по идентификатору Telegram.
func (r *PostgresRepository) GetUserByTelegramID(ctx context.Context, telegramID string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

// GetUserByReferralCode возвращает пользователя по реферальному коду.
func (r *PostgresRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

// UpdateTelegramUsername обновляет username существующего Telegram-пользователя.
// Роль и остальные поля не затрагиваются.
func (r *PostgresRepository) UpdateTelegramUsername(ctx context.Context, id int64, username string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET username = $2 WHERE id = $1 RETURNING `+userColumns,
		id, username))
}

// GetBonusTransactions возвращает последние записи журнала бонусов пользователя.
func (r *PostgresRepository) GetBonusTransactions(ctx context.Context, userID int64, limit int) ([]model.BonusTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, amount, type, order_id, description, created_at
		 FROM bonus_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select bonus transactions: %w", err)
	}
	defer rows.Close()

	var res []model.BonusTransaction
	for rows.Next() {
		var (
			bt     model.BonusTransaction
			amount int64
		)
		if err := rows.Scan(&bt.ID, &bt.UserID, &amount, &bt.Type, &bt.OrderID, &bt.Description, &bt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bonus transaction: %w", err)
		}
		bt.Amount = fromCents(amount)
		res = append(res, bt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetReferralsByUser возвращает приглашённых пользователей с признаком
// завершённого заказа (хотя бы один заказ в статусе delivered).
func (r *PostgresRepository) GetReferralsByUser(ctx context.Context, userID int64) ([]model.Referral, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.telegram_id, u.username, u.created_at,
		        EXISTS (
		            SELECT 1 FROM orders o
		            WHERE o.user_id = u.id AND o.status = $2
		        ) AS has_completed
		 FROM users u
		 WHERE u.referrer_id = $1
		 ORDER BY u.created_at DESC`,
		userID, string(model.OrderStatusDelivered),
	)
	if err != nil {
		return nil, fmt.Errorf("select referrals: %w", err)
	}
	defer rows.Close()

	var res []model.Referral
	for rows.Next() {
		var ref model.Referral
		if err := rows.Scan(&ref.ID, &ref.TelegramID, &ref.Username, &ref.CreatedAt, &ref.HasCompletedOrder); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		res = append(res, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListUsers возвращает страницу пользователей и общее количество.
func (r *PostgresRepository) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}
