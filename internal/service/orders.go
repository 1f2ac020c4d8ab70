package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/evxeen/shop-backend/internal/model"
)

// CreateOrder оформляет заказ от имени гостя или авторизованного пользователя.
// Для авторизованного пользователя сохранённые контактные данные имеют
// приоритет над переданными в запросе, а к заказу привязывается владелец.
func (s *Service) CreateOrder(ctx context.Context, req model.NewOrder, user *model.User) (*model.Order, error) {
	if user != nil {
		if user.Name != nil && *user.Name != "" {
			req.CustomerName = *user.Name
		}
		if user.Phone != nil && *user.Phone != "" {
			req.CustomerPhone = *user.Phone
		}
		if user.Email != nil && *user.Email != "" {
			req.CustomerEmail = *user.Email
		}
		req.UserID = &user.ID
	}

	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerPhone) == "" ||
		strings.TrimSpace(req.Address) == "" ||
		len(req.Items) == 0 {
		return nil, ErrMissingFields
	}

	return s.repo.CreateOrder(ctx, req)
}

// GetAllOrders возвращает все заказы, новые первыми.
func (s *Service) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.GetAllOrders(ctx)
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// ListOrders возвращает страницу заказов с фильтром по статусу.
func (s *Service) ListOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	return s.repo.ListOrders(ctx, status, page, limit)
}

// UpdateOrderStatus обновляет статус заказа. Переход в delivered запускает
// реферальное начисление: его ошибка логируется и не отменяет обновление.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	st := model.OrderStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.repo.UpdateOrderStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}

	if st == model.OrderStatusDelivered && order.UserID != nil {
		credited, err := s.repo.AwardReferralBonus(ctx, order.ID, *order.UserID)
		if err != nil {
			s.logger.Error("award referral bonus error",
				zap.Error(err),
				zap.Int64("orderID", order.ID),
				zap.Int64("userID", *order.UserID),
			)
		} else if credited {
			s.logger.Info("referral bonus credited",
				zap.Int64("orderID", order.ID),
				zap.Int64("referredUserID", *order.UserID),
			)
		}
	}

	return order, nil
}

// DashboardStats возвращает сводные показатели для админской панели.
func (s *Service) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	return s.repo.DashboardStats(ctx)
}

// ListUsers возвращает страницу пользователей.
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return s.repo.ListUsers(ctx, page, limit)
}
