package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kq-050/ArtmarketPlace/pkg/enums"
	"github.com/kq-050/ArtmarketPlace/pkg/types"
)

// Order is the immutable financial record of a settled purchase. Amounts and
// the commission rate are frozen at creation; later rate changes never touch
// historical rows.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	TotalCents      int64               `gorm:"column:total_cents;not null"`
	CommissionCents int64               `gorm:"column:commission_cents;not null"`
	PayoutCents     int64               `gorm:"column:payout_cents;not null"`
	CommissionRate  decimal.Decimal     `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentID       string              `gorm:"column:payment_id;type:text;not null;uniqueIndex:idx_orders_payment_id"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
