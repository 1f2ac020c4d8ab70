package service

import (
	"context"

	"github.com/evxeen/shop-backend/internal/model"
)

// Фиксированный реферальный бонус в рублях, показывается в оценке ожидаемых
// начислений и совпадает с суммой, которую начисляет хранилище.
const referralBonusAmount = 5

const bonusHistoryLimit = 10

// GetReferralStats возвращает сводку по приглашённым пользователям.
// Реферал считается завершённым, если у него есть доставленный заказ;
// оценка ожидаемого бонуса не зависит от фактического журнала начислений.
func (s *Service) GetReferralStats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	referrals, err := s.repo.GetReferralsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, ref := range referrals {
		if ref.HasCompletedOrder {
			completed++
		}
	}

	if referrals == nil {
		referrals = []model.Referral{}
	}

	return &model.ReferralStats{
		TotalReferrals:     len(referrals),
		CompletedReferrals: completed,
		PendingBonus:       float64(completed * referralBonusAmount),
		Referrals:          referrals,
	}, nil
}

// GetBonusHistory возвращает последние записи журнала бонусов пользователя.
func (s *Service) GetBonusHistory(ctx context.Context, userID int64) ([]model.BonusTransaction, error) {
	history, err := s.repo.GetBonusTransactions(ctx, userID, bonusHistoryLimit)
	if err != nil {
		return nil, err
	}

	if history == nil {
		history = []model.BonusTransaction{}
	}

	return history, nil
}
