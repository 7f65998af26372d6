package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/feature/domain"
	"github.com/smallbiznis/entitlements/internal/feature/repository"
	"github.com/smallbiznis/entitlements/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupFeatureService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.MustNode(t),
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk
}

func TestCreateAndLookup(t *testing.T) {
	svc, _ := setupFeatureService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Fullname: "Cloud Storage", Description: " GB of storage "})
	require.NoError(t, err)
	assert.Equal(t, "cloud-storage", created.Name)

	byID, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	byName, err := svc.GetByName(ctx, "cloud-storage")
	require.NoError(t, err)

	assert.Equal(t, byID.ID, byName.ID)
	require.NotNil(t, byID.Description)
	assert.Equal(t, "GB of storage", *byID.Description)
}

func TestCreateRejectsInvalidNames(t *testing.T) {
	svc, _ := setupFeatureService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "storage"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "storage"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestNotFound(t *testing.T) {
	svc, _ := setupFeatureService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetByName(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 7), domain.ErrNotFound)
}

func TestUpdateAndList(t *testing.T) {
	svc, clk := setupFeatureService(t)
	ctx := context.Background()

	storage, err := svc.Create(ctx, domain.CreateRequest{Name: "storage"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "api-calls"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	fullname := "Storage"
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: storage.ID, Fullname: &fullname})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	items, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "api-calls", items[0].Name)
	assert.Equal(t, "storage", items[1].Name)
	require.NotNil(t, items[1].Fullname)
	assert.Equal(t, "Storage", *items[1].Fullname)

	items, err = svc.List(ctx, domain.ListRequest{SortBy: "name", OrderBy: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "storage", items[0].Name)

	require.NoError(t, svc.Delete(ctx, storage.ID))
	items, err = svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListFilters(t *testing.T) {
	svc, _ := setupFeatureService(t)
	ctx := context.Background()

	storage, err := svc.Create(ctx, domain.CreateRequest{Name: "storage"})
	require.NoError(t, err)
	seats, err := svc.Create(ctx, domain.CreateRequest{Name: "seats"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "api-calls"})
	require.NoError(t, err)

	items, err := svc.List(ctx, domain.ListRequest{Name: "seats"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, seats.ID, items[0].ID)

	items, err = svc.List(ctx, domain.ListRequest{IDs: []snowflake.ID{storage.ID, seats.ID}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "seats", items[0].Name)
	assert.Equal(t, "storage", items[1].Name)

	items, err = svc.List(ctx, domain.ListRequest{Name: "storage", IDs: []snowflake.ID{seats.ID}})
	require.NoError(t, err)
	assert.Empty(t, items)
}
