package models

import "time"

// KVEntry is one key of the device-scoped local cache.
type KVEntry struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (KVEntry) TableName() string { return "kv_entries" }
