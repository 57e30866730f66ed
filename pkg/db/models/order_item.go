package models

import (
	"github.com/google/uuid"
)

// OrderItem snapshots one purchased artwork: title and price at purchase time,
// never re-joined against the artwork row.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ArtworkID  uuid.UUID `gorm:"column:artwork_id;type:uuid;not null"`
	ArtistID   uuid.UUID `gorm:"column:artist_id;type:uuid;not null"`
	Title      string    `gorm:"column:title;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
}
