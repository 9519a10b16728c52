package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/db"
	"github.com/angelmondragon/medicarehub-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps documents in the goose-managed documents table on postgres
// or sqlite.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(conn *gorm.DB) (*SQLStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &SQLStore{db: conn}, nil
}

func (s *SQLStore) All(ctx context.Context, collection string) ([]Document, error) {
	var rows []models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{ID: row.ID, Body: json.RawMessage(row.Body)})
	}
	return docs, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	row, err := s.take(s.db.WithContext(ctx), collection, id)
	if err != nil || row == nil {
		return nil, err
	}
	return &Document{ID: row.ID, Body: json.RawMessage(row.Body)}, nil
}

func (s *SQLStore) Create(ctx context.Context, collection string, doc Document) (bool, error) {
	row := models.Document{Collection: collection, ID: doc.ID, Body: string(doc.Body)}
	err := s.db.WithContext(ctx).Create(&row).Error
	if db.IsUniqueViolation(err, "") {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s/%s: %w", collection, doc.ID, err)
	}
	return true, nil
}

func (s *SQLStore) Set(ctx context.Context, collection string, doc Document) error {
	row := models.Document{Collection: collection, ID: doc.ID, Body: string(doc.Body)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

func (s *SQLStore) Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error) {
	var merged *Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.take(tx, collection, id)
		if err != nil || row == nil {
			return err
		}
		body, err := mergeFields([]byte(row.Body), patch)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Document{}).
			Where("collection = ? AND id = ?", collection, id).
			Update("body", string(body)).Error; err != nil {
			return fmt.Errorf("merge %s/%s: %w", collection, id, err)
		}
		merged = &Document{ID: id, Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLStore) take(tx *gorm.DB, collection, id string) (*models.Document, error) {
	var row models.Document
	err := tx.Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &row, nil
}
