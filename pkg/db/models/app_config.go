package models

import "time"

// AppConfig holds singleton key/value settings, e.g. the commission rate.
type AppConfig struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
