package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	"github.com/kq-050/ArtmarketPlace/pkg/enums"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// TransitionResult reports the outcome for a single artwork in a batch.
type TransitionResult struct {
	ArtworkID    uuid.UUID
	Transitioned bool
	Reason       string
}

// MarkSold transitions every sellable artwork in artworkIDs to sold inside
// the supplied transaction. The update is conditional on the current status,
// so two concurrent attempts on the same artwork can never both observe a
// fresh transition. Artworks that are missing or not sellable are reported
// back with a reason instead of failing the batch; redelivered payment
// events hit exactly this path.
func MarkSold(ctx context.Context, tx *gorm.DB, artworkIDs []uuid.UUID) ([]TransitionResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if len(artworkIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one artwork id is required")
	}

	results := make([]TransitionResult, 0, len(artworkIDs))
	seen := make(map[uuid.UUID]struct{}, len(artworkIDs))

	for _, id := range artworkIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id must not be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		update := tx.WithContext(ctx).
			Model(&models.Artwork{}).
			Where("id = ? AND status = ?", id, enums.ArtworkStatusApproved).
			Update("status", enums.ArtworkStatusSold)
		if update.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, update.Error, "transition artwork status")
		}

		if update.RowsAffected > 0 {
			results = append(results, TransitionResult{ArtworkID: id, Transitioned: true})
			continue
		}

		reason, err := classifySkip(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, TransitionResult{ArtworkID: id, Reason: reason})
	}

	return results, nil
}

func classifySkip(ctx context.Context, tx *gorm.DB, id uuid.UUID) (string, error) {
	var artwork models.Artwork
	err := tx.WithContext(ctx).Select("status").First(&artwork, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "artwork not found", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "inspect skipped artwork")
	}
	if artwork.Status == enums.ArtworkStatusSold {
		return "already sold", nil
	}
	return fmt.Sprintf("status %s is not sellable", artwork.Status), nil
}

// NewlyTransitioned filters the batch down to artworks this attempt sold.
func NewlyTransitioned(results []TransitionResult) []uuid.UUID {
	var ids []uuid.UUID
	for _, result := range results {
		if result.Transitioned {
			ids = append(ids, result.ArtworkID)
		}
	}
	return ids
}

// Skipped filters the batch down to artworks left untouched.
func Skipped(results []TransitionResult) []TransitionResult {
	var skipped []TransitionResult
	for _, result := range results {
		if !result.Transitioned {
			skipped = append(skipped, result)
		}
	}
	return skipped
}
