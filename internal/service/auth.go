package service

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/telegram"
)

const bcryptCost = 12

// RegisterUser регистрирует нового пользователя по email и паролю.
// Несуществующий реферальный код игнорируется молча.
func (s *Service) RegisterUser(ctx context.Context, email, password, phone, referralCode string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	nu := repository.NewUser{
		Email:        &email,
		PasswordHash: hash,
		ReferrerID:   s.resolveReferrer(ctx, referralCode),
	}
	if phone != "" {
		nu.Phone = &phone
	}

	return s.createUserWithCode(ctx, nu)
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Аккаунты, созданные через Telegram, не имеют пароля.
	if len(user.PasswordHash) == 0 {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// TelegramLogin выполняет вход через Telegram Login Widget с обязательной
// проверкой подписи. Возвращает пользователя и признак того, что он создан
// только что. Роль существующего пользователя сохраняется, новый получает USER.
func (s *Service) TelegramLogin(ctx context.Context, data telegram.LoginData, referralCode string) (*model.User, bool, error) {
	if err := s.verifier.Verify(data); err != nil {
		return nil, false, err
	}

	telegramID := strconv.FormatInt(data.ID, 10)

	existing, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		if data.Username != "" && (existing.Username == nil || *existing.Username != data.Username) {
			updated, err := s.repo.UpdateTelegramUsername(ctx, existing.ID, data.Username)
			if err != nil {
				return nil, false, err
			}
			return updated, false, nil
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	nu := repository.NewUser{
		TelegramID: &telegramID,
		ReferrerID: s.resolveReferrer(ctx, referralCode),
	}
	if data.Username != "" {
		nu.Username = &data.Username
	}

	user, err := s.createUserWithCode(ctx, nu)
	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}
