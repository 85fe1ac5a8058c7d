package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/shared"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithClock(func() time.Time { return epoch })
}

func TestCreateStampsScannedAt(t *testing.T) {
	svc := newTestService(newMemoryRepository())

	rec, err := svc.Create(context.Background(), CreateInput{Barcode: "12345678", ProductName: "Oats", HealthScore: 80, NutriScore: "A"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, epoch, rec.ScannedAt)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.Equal(t, epoch, rec.UpdatedAt)
}

func TestCreateKeepsExplicitScannedAt(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	at := epoch.Add(-time.Hour)

	rec, err := svc.Create(context.Background(), CreateInput{Barcode: "12345678", ScannedAt: &at})
	require.NoError(t, err)
	assert.Equal(t, at, rec.ScannedAt)
}

func TestCreateValidatesRecord(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	cases := []CreateInput{
		{},
		{Barcode: "1234"},
		{Barcode: "12345678901234"},
		{Barcode: "1234abcd"},
		{Barcode: "-1234567"},
		{Barcode: "+1234567"},
		{Barcode: "1234.567"},
		{Barcode: "1234567 "},
		{Barcode: "１２３４５６７８"},
		{Barcode: "12345678", HealthScore: 101},
		{Barcode: "12345678", HealthScore: -1},
		{Barcode: "12345678", NutriScore: "ABCD"},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		require.Error(t, err, "%+v", in)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	}
}

func TestCreateWrapsStoreFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.fail = errStoreDown
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Barcode: "12345678"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPersistence))
}

func TestListReturnsMostRecentFirst(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	ctx := context.Background()
	for i, code := range []string{"11111111", "22222222", "33333333"} {
		at := epoch.Add(time.Duration(i) * time.Minute)
		_, err := svc.Create(ctx, CreateInput{Barcode: code, ScannedAt: &at})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "33333333", records[0].Barcode)
	assert.Equal(t, "22222222", records[1].Barcode)
}

func TestListLimitPolicy(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	for i := 0; i < MaxListLimit+10; i++ {
		at := epoch.Add(time.Duration(i) * time.Second)
		_, err := svc.Create(ctx, CreateInput{Barcode: "12345678", ScannedAt: &at})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultListLimit)

	records, err = svc.List(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, records, MaxListLimit)

	_, err = svc.List(ctx, -1)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	records, err := svc.List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	ctx := context.Background()
	rec, err := svc.Create(ctx, CreateInput{Barcode: "12345678"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, rec.ID))
	require.NoError(t, svc.DeleteByID(ctx, rec.ID))
	require.NoError(t, svc.DeleteByID(ctx, "does-not-exist"))

	records, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecentBarcodesAndPrune(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	ctx := context.Background()
	for i, code := range []string{"11111111", "22222222", "11111111", "33333333"} {
		at := epoch.Add(time.Duration(i) * time.Hour)
		_, err := svc.Create(ctx, CreateInput{Barcode: code, ScannedAt: &at})
		require.NoError(t, err)
	}

	barcodes, err := svc.RecentBarcodes(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"33333333", "11111111", "22222222"}, barcodes)

	removed, err := svc.PruneBefore(ctx, epoch.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	records, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
