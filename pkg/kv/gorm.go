package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var keyColumn = clause.Column{Name: "key"}

// Gorm persists entries in the kv_entries table of the device cache file.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(conn *gorm.DB) (*Gorm, error) {
	if conn == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &Gorm{db: conn}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := g.db.WithContext(ctx).
		Where(clause.Eq{Column: keyColumn, Value: key}).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading local cache")
	}
	return entry.Value, true, nil
}

func (g *Gorm) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing local cache")
	}
	return nil
}

func (g *Gorm) Delete(ctx context.Context, key string) error {
	err := g.db.WithContext(ctx).
		Where(clause.Eq{Column: keyColumn, Value: key}).
		Delete(&models.KVEntry{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting local cache key")
	}
	return nil
}
