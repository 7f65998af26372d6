package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/testutil"
	"github.com/smallbiznis/entitlements/internal/usage/domain"
	"github.com/smallbiznis/entitlements/internal/usage/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seeded struct {
	subscriptionID snowflake.ID
	storageID      snowflake.ID
	seatsID        snowflake.ID
}

func setupUsageService(t *testing.T) (domain.Service, *clock.FakeClock, seeded) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.MustNode(t)
	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

	ids := seedSubscription(t, db, node, clk.Now())
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk, ids
}

func seedSubscription(t *testing.T, db *gorm.DB, node *snowflake.Node, now time.Time) seeded {
	t.Helper()
	planID := node.Generate()
	ids := seeded{
		subscriptionID: node.Generate(),
		storageID:      node.Generate(),
		seatsID:        node.Generate(),
	}

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO subscription_plans (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			[]any{planID, "basic", now, now}},
		{`INSERT INTO subscription_features (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			[]any{ids.storageID, "storage", now, now}},
		{`INSERT INTO subscription_features (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			[]any{ids.seatsID, "seats", now, now}},
		{`INSERT INTO subscription_subscriptions (id, owner_type, owner_id, plan_id, starts_at, ends_at, created_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{ids.subscriptionID, "users", 1, planID, now, now.AddDate(0, 1, 0), now, now}},
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt.sql, stmt.args...).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return ids
}

func TestRecordSetsAndIncrements(t *testing.T) {
	svc, _, ids := setupUsageService(t)
	ctx := context.Background()

	first, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 100, first.Used)

	second, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: 28, Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 128, second.Used)

	third, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 5, third.Used)

	items, err := svc.ListBySubscription(ctx, ids.subscriptionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 5, items[0].Used)
}

func TestRecordRejectsOutOfRange(t *testing.T) {
	svc, _, ids := setupUsageService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: 3})
	require.NoError(t, err)

	_, err = svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: -4, Incremental: true})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: domain.MaxUsed + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Record(ctx, domain.RecordRequest{FeatureID: ids.storageID, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)
}

func TestRecordKeepsValidUntil(t *testing.T) {
	svc, clk, ids := setupUsageService(t)
	ctx := context.Background()

	until := clk.Now().Add(24 * time.Hour)
	_, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.seatsID, Amount: 1, ValidUntil: &until})
	require.NoError(t, err)

	updated, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.seatsID, Amount: 1, Incremental: true})
	require.NoError(t, err)
	require.NotNil(t, updated.ValidUntil)
	assert.True(t, updated.ValidUntil.Equal(until))
}

func TestReduceFloorsAtZero(t *testing.T) {
	svc, _, ids := setupUsageService(t)
	ctx := context.Background()

	_, err := svc.Reduce(ctx, ids.subscriptionID, ids.storageID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: ids.storageID, Amount: 10})
	require.NoError(t, err)

	reduced, err := svc.Reduce(ctx, ids.subscriptionID, ids.storageID, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, reduced.Used)

	reduced, err = svc.Reduce(ctx, ids.subscriptionID, ids.storageID, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reduced.Used)

	_, err = svc.Reduce(ctx, ids.subscriptionID, ids.storageID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestClear(t *testing.T) {
	svc, _, ids := setupUsageService(t)
	ctx := context.Background()

	for _, featureID := range []snowflake.ID{ids.storageID, ids.seatsID} {
		_, err := svc.Record(ctx, domain.RecordRequest{SubscriptionID: ids.subscriptionID, FeatureID: featureID, Amount: 1})
		require.NoError(t, err)
	}

	items, err := svc.ListBySubscription(ctx, ids.subscriptionID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, svc.Clear(ctx, ids.subscriptionID))

	items, err = svc.ListBySubscription(ctx, ids.subscriptionID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
