package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kq-050/ArtmarketPlace/pkg/enums"
)

// AuditLog is an append-only trail entry. Rows are never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Action    enums.AuditAction `gorm:"column:action;type:text;not null"`
	UserID    *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Details   string            `gorm:"column:details;not null"`
	Origin    string            `gorm:"column:origin;type:text;not null;default:'unknown'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
