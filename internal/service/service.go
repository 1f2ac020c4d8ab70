// Package service реализует бизнес-логику сервиса магазина.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/telegram"
)

// ErrCredentialsRequired возвращается, если не переданы email или пароль.
var (
	ErrCredentialsRequired = errors.New("email and password are required")
	// ErrPasswordTooShort возвращается при пароле короче шести символов.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingFields возвращается, если после подстановки данных пользователя
	// в заказе не хватает обязательных полей.
	ErrMissingFields = errors.New("missing required fields: customerName, customerPhone, address, items")
	// ErrInvalidStatus возвращается при неизвестном статусе заказа.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidProduct возвращается при некорректных данных товара.
	ErrInvalidProduct = errors.New("invalid product data")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, nu repository.NewUser) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	UpdateTelegramUsername(ctx context.Context, id int64, username string) (*model.User, error)
	GetBonusTransactions(ctx context.Context, userID int64, limit int) ([]model.BonusTransaction, error)
	GetReferralsByUser(ctx context.Context, userID int64) ([]model.Referral, error)
	ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)

	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (*model.Product, error)

	CreateOrder(ctx context.Context, req model.NewOrder) (*model.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	AwardReferralBonus(ctx context.Context, orderID, referredUserID int64) (bool, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// Service содержит бизнес-логику сервиса магазина.
type Service struct {
	repo     Repository
	verifier *telegram.Verifier
	logger   *zap.Logger
}

// NewService создаёт сервис с указанным репозиторием и верификатором Telegram.
func NewService(repo Repository, verifier *telegram.Verifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		verifier: verifier,
		logger:   logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const referralCodeLen = 6

// generateReferralCode генерирует 6-символьный код из заглавных букв и цифр.
func generateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}

	for i := range buf {
		buf[i] = referralCodeAlphabet[int(buf[i])%len(referralCodeAlphabet)]
	}

	return string(buf), nil
}

// resolveReferrer возвращает идентификатор владельца реферального кода.
// Несуществующий код игнорируется без ошибки.
func (s *Service) resolveReferrer(ctx context.Context, referralCode string) *int64 {
	if referralCode == "" {
		return nil
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, referralCode)
	if err != nil {
		return nil
	}

	return &referrer.ID
}

// createUserWithCode создаёт пользователя, перегенерируя реферальный код
// при маловероятной коллизии.
func (s *Service) createUserWithCode(ctx context.Context, nu repository.NewUser) (*model.User, error) {
	for attempt := 0; attempt < 3; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		nu.ReferralCode = code

		user, err := s.repo.CreateUser(ctx, nu)
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	}

	return nil, repository.ErrReferralCodeTaken
}
