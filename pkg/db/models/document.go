package models

import "time"

// Document is a JSON document addressed by collection and id in a SQL-backed
// remote store.
type Document struct {
	Collection string    `gorm:"column:collection;type:text;primaryKey"`
	ID         string    `gorm:"column:id;type:text;primaryKey"`
	Body       string    `gorm:"column:body;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string { return "documents" }
