package postgres_test

import (
	"context"
	"testing"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository/postgres"
	"github.com/fitcoach/intake-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoRepository_FindByCode(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	created := testutil.NewPromoCodeBuilder().WithCode("SUMMER").Build(t, testDB.DB)

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "exact match", code: "SUMMER"},
		{name: "lowercase input", code: "summer"},
		{name: "mixed case input", code: "SuMmEr"},
		{name: "unknown code", code: "WINTER", wantErr: domain.ErrPromoNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promo, err := repo.FindByCode(ctx, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, promo.ID)
			assert.Equal(t, "SUMMER", promo.Code)
		})
	}
}

func TestPromoRepository_PendingRedemptionUniqueness(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	promo := testutil.NewPromoCodeBuilder().Build(t, testDB.DB)
	user := testutil.NewUserBuilder().Build(t, testDB.DB)

	exists, err := repo.FindPendingRedemption(ctx, user.ID, promo.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.InsertPendingRedemption(ctx, user.ID, promo.ID))
	// The duplicate insert is absorbed by the partial unique index
	require.NoError(t, repo.InsertPendingRedemption(ctx, user.ID, promo.ID))

	exists, err = repo.FindPendingRedemption(ctx, user.ID, promo.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	var count int64
	err = testDB.DB.Model(&domain.PromoRedemption{}).
		Where("user_id = ? AND promo_code_id = ?", user.ID, promo.ID).
		Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPromoRepository_GetPendingRedemptions(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	plain := testutil.NewPromoCodeBuilder().WithCode("PLAIN").Build(t, testDB.DB)
	exclusive := testutil.NewPromoCodeBuilder().WithCode("EXCL").SingleUse().Build(t, testDB.DB)
	user := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.InsertPendingRedemption(ctx, user.ID, plain.ID))
	require.NoError(t, repo.InsertPendingRedemption(ctx, user.ID, exclusive.ID))

	pending, err := repo.GetPendingRedemptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, plain.ID, pending[0].PromoCodeID)
	assert.False(t, pending[0].SingleUse)
	assert.Equal(t, exclusive.ID, pending[1].PromoCodeID)
	assert.True(t, pending[1].SingleUse)
}

func TestPromoRepository_InsertAttachedRedemption(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	promo := testutil.NewPromoCodeBuilder().SingleUse().Build(t, testDB.DB)

	first := testutil.NewUserBuilder().Build(t, testDB.DB)
	second := testutil.NewUserBuilder().Build(t, testDB.DB)
	firstSub := testutil.NewSubmissionBuilder().WithUser(first).Build(t, testDB.DB)
	secondSub := testutil.NewSubmissionBuilder().WithUser(second).Build(t, testDB.DB)

	ok, err := repo.InsertAttachedRedemption(ctx, first.ID, promo.ID, firstSub.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)

	// An exclusive attach by anyone else hits the partial unique index
	ok, err = repo.InsertAttachedRedemption(ctx, second.ID, promo.ID, secondSub.ID, true)
	require.NoError(t, err)
	assert.False(t, ok)

	// Retrying the winner's attach is also a quiet no-op
	ok, err = repo.InsertAttachedRedemption(ctx, first.ID, promo.ID, firstSub.ID, true)
	require.NoError(t, err)
	assert.False(t, ok)

	used, err := repo.HasAttachedRedemption(ctx, promo.ID)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestPromoRepository_InsertAttachedRedemption_NonExclusive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	promo := testutil.NewPromoCodeBuilder().Build(t, testDB.DB)

	// A reusable code attaches to any number of submissions
	for i := 0; i < 3; i++ {
		user := testutil.NewUserBuilder().Build(t, testDB.DB)
		sub := testutil.NewSubmissionBuilder().WithUser(user).Build(t, testDB.DB)
		ok, err := repo.InsertAttachedRedemption(ctx, user.ID, promo.ID, sub.ID, false)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestPromoRepository_CRUD(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	promo := &domain.PromoCode{Code: "newcode", Description: "fresh"}
	require.NoError(t, repo.Create(ctx, promo))
	assert.Equal(t, "NEWCODE", promo.Code)

	promo.Description = "updated"
	promo.SingleUse = true
	require.NoError(t, repo.Update(ctx, promo))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "updated", all[0].Description)
	assert.True(t, all[0].SingleUse)
	assert.Equal(t, int64(0), all[0].UsageCount)

	require.NoError(t, repo.Delete(ctx, promo.ID))

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPromoRepository_GetAll_UsageCount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPromoRepository(testDB.DB)
	ctx := context.Background()

	promo := testutil.NewPromoCodeBuilder().WithCode("COUNTED").Build(t, testDB.DB)

	for i := 0; i < 2; i++ {
		user := testutil.NewUserBuilder().Build(t, testDB.DB)
		require.NoError(t, repo.InsertPendingRedemption(ctx, user.ID, promo.ID))
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].UsageCount)
}
