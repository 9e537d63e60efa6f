package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/broker"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/redisclient"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
)

// PassService issues, redeems and expires drink passes
type PassService struct {
	store              *store.Store
	redis              *redisclient.Client
	eventPublisher     *broker.EventPublisher
	defaultExpiryHours int
	logger             *zap.Logger
}

// NewPassService creates a new pass service
func NewPassService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher, defaultExpiryHours int) *PassService {
	return &PassService{
		store:              store,
		redis:              redis,
		eventPublisher:     eventPublisher,
		defaultExpiryHours: defaultExpiryHours,
		logger:             util.GetLogger(),
	}
}

// passExpiryHours returns the reward's expiry window, falling back to
// the configured default when the reward does not set one
func passExpiryHours(rewardHours, fallback int) int {
	if rewardHours > 0 {
		return rewardHours
	}
	return fallback
}

// ClaimReward issues a drink pass for a completed quest
func (s *PassService) ClaimReward(ctx context.Context, userID, questID int64) (*models.DrinkPass, error) {
	ctx, span := util.StartSpan(ctx, "PassService.ClaimReward")
	defer span.End()

	quest, err := s.store.GetQuestByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest.RewardID == nil {
		return nil, fmt.Errorf("%w: quest has no reward", ErrInvalid)
	}

	progress, err := s.store.GetQuestProgress(ctx, userID, questID)
	if err != nil {
		return nil, err
	}
	if progress.Status != models.QuestStatusCompleted {
		return nil, fmt.Errorf("%w: quest is not completed", ErrInvalid)
	}

	reward, err := s.store.GetRewardByID(ctx, *quest.RewardID)
	if err != nil {
		return nil, err
	}

	active, err := s.store.HasActivePassForReward(ctx, userID, reward.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: You already have an active drink pass for this reward", ErrConflict)
	}

	pass := &models.DrinkPass{
		UserID:    userID,
		RewardID:  reward.ID,
		VenueID:   quest.VenueID,
		Code:      strings.ToUpper(shortuuid.New()[:10]),
		Status:    models.PassStatusActive,
		ExpiresAt: time.Now().Add(time.Duration(passExpiryHours(reward.ExpiryHours, s.defaultExpiryHours)) * time.Hour),
	}
	if err := s.store.CreateDrinkPass(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to issue pass: %w", err)
	}

	util.PassesIssuedTotal.Inc()
	s.logger.Info("Drink pass issued",
		zap.Int64("pass_id", pass.ID),
		zap.Int64("user_id", userID),
		zap.Int64("reward_id", reward.ID))

	event := &models.PassIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePassIssued,
			Timestamp: time.Now(),
		},
		PassID:   pass.ID,
		UserID:   userID,
		RewardID: reward.ID,
		VenueID:  pass.VenueID,
		Expires:  pass.ExpiresAt,
	}
	if err := s.eventPublisher.PublishPassIssued(ctx, event); err != nil {
		s.logger.Error("Failed to publish PassIssued event", zap.Error(err))
	}

	return pass, nil
}

// GetPass retrieves a pass by id
func (s *PassService) GetPass(ctx context.Context, passID int64) (*models.DrinkPass, error) {
	return s.store.GetDrinkPassByID(ctx, passID)
}

// GetPassByCode retrieves a pass by its redemption code
func (s *PassService) GetPassByCode(ctx context.Context, code string) (*models.DrinkPass, error) {
	return s.store.GetDrinkPassByCode(ctx, code)
}

// GetUserPasses lists a user's passes, lazily marking overdue ones
func (s *PassService) GetUserPasses(ctx context.Context, userID int64) ([]models.DrinkPass, error) {
	passes, err := s.store.GetDrinkPassesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range passes {
		if passes[i].Status == models.PassStatusActive && passes[i].ExpiresAt.Before(now) {
			if ok, err := s.store.TransitionPassStatus(ctx, passes[i].ID,
				models.PassStatusActive, models.PassStatusExpired); err == nil && ok {
				passes[i].Status = models.PassStatusExpired
				util.PassesExpiredTotal.Inc()
			}
		}
	}
	return passes, nil
}

// RedeemPass redeems a pass by its code, exactly once. The Redis claim
// is a fast-path guard; the conditional status update is the authority.
func (s *PassService) RedeemPass(ctx context.Context, code string) (*models.DrinkPass, error) {
	ctx, span := util.StartSpan(ctx, "PassService.RedeemPass")
	defer span.End()

	pass, err := s.store.GetDrinkPassByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch pass.Status {
	case models.PassStatusRedeemed:
		return nil, fmt.Errorf("%w: Already redeemed", ErrConflict)
	case models.PassStatusCancelled:
		return nil, fmt.Errorf("%w: pass was cancelled", ErrConflict)
	case models.PassStatusExpired:
		return nil, fmt.Errorf("%w: pass has expired", ErrConflict)
	}

	if pass.ExpiresAt.Before(time.Now()) {
		if ok, err := s.store.TransitionPassStatus(ctx, pass.ID,
			models.PassStatusActive, models.PassStatusExpired); err == nil && ok {
			util.PassesExpiredTotal.Inc()
		}
		return nil, fmt.Errorf("%w: pass has expired", ErrConflict)
	}

	claimed, err := s.redis.ClaimRedemption(ctx, code, time.Until(pass.ExpiresAt))
	if err != nil {
		s.logger.Warn("Redis redemption claim failed, relying on conditional update",
			zap.String("code", code),
			zap.Error(err))
	} else if !claimed {
		return nil, fmt.Errorf("%w: Already redeemed", ErrConflict)
	}

	ok, err := s.store.TransitionPassStatus(ctx, pass.ID,
		models.PassStatusActive, models.PassStatusRedeemed)
	if err != nil {
		if rerr := s.redis.ReleaseRedemption(ctx, code); rerr != nil {
			s.logger.Error("Failed to release redemption claim", zap.Error(rerr))
		}
		return nil, fmt.Errorf("failed to redeem pass: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: Already redeemed", ErrConflict)
	}

	util.PassesRedeemedTotal.Inc()
	s.logger.Info("Drink pass redeemed",
		zap.Int64("pass_id", pass.ID),
		zap.Int64("user_id", pass.UserID))

	event := &models.PassRedeemedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePassRedeemed,
			Timestamp: time.Now(),
		},
		PassID:  pass.ID,
		UserID:  pass.UserID,
		VenueID: pass.VenueID,
	}
	if err := s.eventPublisher.PublishPassRedeemed(ctx, event); err != nil {
		s.logger.Error("Failed to publish PassRedeemed event", zap.Error(err))
	}

	return s.store.GetDrinkPassByID(ctx, pass.ID)
}

// CancelPass cancels an ACTIVE pass
func (s *PassService) CancelPass(ctx context.Context, passID int64) (*models.DrinkPass, error) {
	pass, err := s.store.GetDrinkPassByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.TransitionPassStatus(ctx, pass.ID,
		models.PassStatusActive, models.PassStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pass: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: pass is not active", ErrConflict)
	}

	return s.store.GetDrinkPassByID(ctx, pass.ID)
}

// ExpireOverduePasses sweeps overdue ACTIVE passes; called by the
// background worker under a Redis lock
func (s *PassService) ExpireOverduePasses(ctx context.Context) (int64, error) {
	expired, err := s.store.ExpireOverduePasses(ctx)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		util.PassesExpiredTotal.Add(float64(expired))
		s.logger.Info("Expired overdue passes", zap.Int64("count", expired))
	}
	return expired, nil
}
