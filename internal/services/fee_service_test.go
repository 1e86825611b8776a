package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/models"
)

func TestComputeFeesDefaultPolicy(t *testing.T) {
	fees := ComputeFees(1000, models.DefaultFeeSettings())

	assert.Equal(t, 50.0, fees.PlatformFee)
	assert.Equal(t, 150.0, fees.CommissionAmount)
	assert.Equal(t, 2.0, fees.TrustAndSupportFee)
	assert.Equal(t, 850.0, fees.FinalTaskerPayout)
	assert.Equal(t, 1052.0, fees.TotalAmountPaidByCustomer)
}

func TestComputeFeesInvariants(t *testing.T) {
	budgets := []float64{1, 99.99, 250, 1000, 123456.78}
	policy := models.FeeSettings{PlatformFeePct: 7, CommissionPct: 12, TrustAndSupportFee: 3.5}

	for _, budget := range budgets {
		fees := ComputeFees(budget, policy)
		assert.InDelta(t, budget, fees.FinalTaskerPayout+fees.CommissionAmount, 1e-9)
		assert.InDelta(t, budget+fees.PlatformFee+fees.TrustAndSupportFee, fees.TotalAmountPaidByCustomer, 1e-9)
	}
}

func TestCurrentPolicyFallsBackToDefault(t *testing.T) {
	svc := NewFeeService(&fakeFeeRepo{})

	policy, err := svc.CurrentPolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFeeSettings().PlatformFeePct, policy.PlatformFeePct)
	assert.Equal(t, models.DefaultFeeSettings().CommissionPct, policy.CommissionPct)
}

func TestUpdatePolicyAppendsHistory(t *testing.T) {
	repo := &fakeFeeRepo{}
	svc := NewFeeService(repo)
	admin := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.UpdatePolicy(ctx, admin, 10, 20, 5)
	require.NoError(t, err)
	_, err = svc.UpdatePolicy(ctx, admin, 8, 18, 4)
	require.NoError(t, err)

	current, err := svc.CurrentPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8.0, current.PlatformFeePct)
	assert.Equal(t, 18.0, current.CommissionPct)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdatePolicyValidation(t *testing.T) {
	svc := NewFeeService(&fakeFeeRepo{})
	admin := primitive.NewObjectID()
	ctx := context.Background()

	cases := []struct {
		name                       string
		platform, commission, flat float64
	}{
		{"platform over 100", 101, 15, 2},
		{"platform negative", -1, 15, 2},
		{"commission over 100", 5, 150, 2},
		{"flat fee negative", 5, 15, -0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdatePolicy(ctx, admin, tc.platform, tc.commission, tc.flat)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}
