package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kq-050/ArtmarketPlace/pkg/enums"
)

// Artwork is a listed piece. Price is immutable once the piece sells;
// the selling price additionally lives on the order line item snapshot.
type Artwork struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Title        string              `gorm:"column:title;not null"`
	PriceCents   int64               `gorm:"column:price_cents;not null"`
	ArtistID     uuid.UUID           `gorm:"column:artist_id;type:uuid;not null"`
	Artist       *User               `gorm:"foreignKey:ArtistID"`
	Status       enums.ArtworkStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AdminRemarks *string             `gorm:"column:admin_remarks"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
