package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
)

// ComputeFees derives the monetary snapshot for a budget under a policy.
// Percentages in the policy are whole-number percent.
func ComputeFees(budget float64, policy models.FeeSettings) models.FeeSnapshot {
	platformFee := budget * policy.PlatformFeePct / 100
	commission := budget * policy.CommissionPct / 100
	return models.FeeSnapshot{
		PlatformFee:               platformFee,
		CommissionAmount:          commission,
		TrustAndSupportFee:        policy.TrustAndSupportFee,
		FinalTaskerPayout:         budget - commission,
		TotalAmountPaidByCustomer: budget + platformFee + policy.TrustAndSupportFee,
	}
}

// FeeService resolves the current fee policy and manages its append-only
// history.
type FeeService interface {
	CurrentPolicy(ctx context.Context) (models.FeeSettings, error)
	UpdatePolicy(ctx context.Context, createdBy primitive.ObjectID, platformFeePct, commissionPct, trustAndSupportFee float64) (*models.FeeSettings, error)
	History(ctx context.Context, limit int) ([]models.FeeSettings, error)
}

type feeService struct {
	repo repositories.FeeSettingsRepository
}

func NewFeeService(repo repositories.FeeSettingsRepository) FeeService {
	return &feeService{repo: repo}
}

func (s *feeService) CurrentPolicy(ctx context.Context) (models.FeeSettings, error) {
	latest, err := s.repo.Latest(ctx)
	if err != nil {
		return models.FeeSettings{}, err
	}
	if latest == nil {
		return models.DefaultFeeSettings(), nil
	}
	return *latest, nil
}

func (s *feeService) UpdatePolicy(ctx context.Context, createdBy primitive.ObjectID, platformFeePct, commissionPct, trustAndSupportFee float64) (*models.FeeSettings, error) {
	if platformFeePct < 0 || platformFeePct > 100 {
		return nil, apperrors.Validation("platformFeePct must be between 0 and 100, got %v", platformFeePct)
	}
	if commissionPct < 0 || commissionPct > 100 {
		return nil, apperrors.Validation("commissionPct must be between 0 and 100, got %v", commissionPct)
	}
	if trustAndSupportFee < 0 {
		return nil, apperrors.Validation("trustAndSupportFee must not be negative, got %v", trustAndSupportFee)
	}

	settings := &models.FeeSettings{
		PlatformFeePct:     platformFeePct,
		CommissionPct:      commissionPct,
		TrustAndSupportFee: trustAndSupportFee,
		CreatedBy:          &createdBy,
	}
	if err := s.repo.Store(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *feeService) History(ctx context.Context, limit int) ([]models.FeeSettings, error) {
	return s.repo.History(ctx, limit)
}
