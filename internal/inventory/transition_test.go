package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	"github.com/kq-050/ArtmarketPlace/pkg/enums"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Artwork{}))
	return db
}

func seedArtwork(t *testing.T, db *gorm.DB, status enums.ArtworkStatus) uuid.UUID {
	t.Helper()
	artwork := models.Artwork{
		ID:         uuid.New(),
		Title:      "Sunset Over Harbor",
		PriceCents: 5000,
		ArtistID:   uuid.New(),
		Status:     status,
	}
	require.NoError(t, db.Create(&artwork).Error)
	return artwork.ID
}

func TestMarkSoldTransitionsApprovedBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	first := seedArtwork(t, db, enums.ArtworkStatusApproved)
	second := seedArtwork(t, db, enums.ArtworkStatusApproved)

	var results []TransitionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		results, terr = MarkSold(ctx, tx, []uuid.UUID{first, second})
		return terr
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.ElementsMatch(t, []uuid.UUID{first, second}, NewlyTransitioned(results))
	require.Empty(t, Skipped(results))

	for _, id := range []uuid.UUID{first, second} {
		var artwork models.Artwork
		require.NoError(t, db.First(&artwork, "id = ?", id).Error)
		require.Equal(t, enums.ArtworkStatusSold, artwork.Status)
	}
}

func TestMarkSoldReportsSkipsWithoutFailing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	approved := seedArtwork(t, db, enums.ArtworkStatusApproved)
	sold := seedArtwork(t, db, enums.ArtworkStatusSold)
	pending := seedArtwork(t, db, enums.ArtworkStatusPending)
	missing := uuid.New()

	var results []TransitionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		results, terr = MarkSold(ctx, tx, []uuid.UUID{approved, sold, pending, missing})
		return terr
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{approved}, NewlyTransitioned(results))

	skipped := Skipped(results)
	require.Len(t, skipped, 3)
	reasons := map[uuid.UUID]string{}
	for _, s := range skipped {
		reasons[s.ArtworkID] = s.Reason
	}
	require.Equal(t, "already sold", reasons[sold])
	require.Equal(t, "artwork not found", reasons[missing])
	require.Contains(t, reasons[pending], "not sellable")
}

func TestMarkSoldIsExactlyOncePerArtwork(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	id := seedArtwork(t, db, enums.ArtworkStatusApproved)

	run := func() []TransitionResult {
		var results []TransitionResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var terr error
			results, terr = MarkSold(ctx, tx, []uuid.UUID{id})
			return terr
		})
		require.NoError(t, err)
		return results
	}

	first := run()
	require.True(t, first[0].Transitioned)

	// Redelivery of the same event must observe "already sold", never a
	// second fresh transition.
	second := run()
	require.False(t, second[0].Transitioned)
	require.Equal(t, "already sold", second[0].Reason)
}

func TestMarkSoldDeduplicatesIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	id := seedArtwork(t, db, enums.ArtworkStatusApproved)

	var results []TransitionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		results, terr = MarkSold(ctx, tx, []uuid.UUID{id, id})
		return terr
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Transitioned)
}

func TestMarkSoldValidatesInput(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := MarkSold(context.Background(), tx, nil)
		return terr
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
