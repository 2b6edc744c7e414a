package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type DocumentRow struct {
	Collection string         `gorm:"column:collection;primaryKey;size:128" json:"collection"`
	ID         string         `gorm:"column:id;primaryKey;size:300" json:"id"`
	Revision   int64          `gorm:"column:revision;not null;default:0" json:"revision"`
	Body       datatypes.JSON `gorm:"column:body;not null" json:"body"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DocumentRow) TableName() string { return "subset_document" }

// GormStore keeps documents in one relational table keyed by (collection, id).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound(collection, id)
	}
	if err != nil {
		return nil, apierr.UpstreamCause("get "+collection+"/"+id, err)
	}
	return json.RawMessage(row.Body), nil
}

func (s *GormStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apierr.UpstreamCause("list "+collection, err)
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, json.RawMessage(r.Body))
	}
	return out, nil
}

func (s *GormStore) Create(ctx context.Context, collection, id string, doc json.RawMessage) error {
	now := time.Now().UTC()
	row := DocumentRow{
		Collection: collection,
		ID:         id,
		Revision:   RevisionOf(doc),
		Body:       datatypes.JSON(doc),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return apierr.UpstreamCause("create "+collection+"/"+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Conflict("%s %q already exists", collection, id)
	}
	return nil
}

func (s *GormStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	res := s.db.WithContext(ctx).
		Model(&DocumentRow{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]interface{}{
			"body":       datatypes.JSON(doc),
			"revision":   RevisionOf(doc),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return apierr.UpstreamCause("put "+collection+"/"+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound(collection, id)
	}
	return nil
}

func (s *GormStore) PutIfRevision(ctx context.Context, collection, id string, doc json.RawMessage, expected int64) error {
	res := s.db.WithContext(ctx).
		Model(&DocumentRow{}).
		Where("collection = ? AND id = ? AND revision = ?", collection, id, expected).
		Updates(map[string]interface{}{
			"body":       datatypes.JSON(doc),
			"revision":   RevisionOf(doc),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return apierr.UpstreamCause("put "+collection+"/"+id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}
	return apierr.Conflict("%s %q was modified concurrently (expected revision %d)", collection, id, expected)
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&DocumentRow{})
	if res.Error != nil {
		return apierr.UpstreamCause("delete "+collection+"/"+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound(collection, id)
	}
	return nil
}

func (s *GormStore) Schema(_ context.Context, collection string) (json.RawMessage, error) {
	return schema.Embedded(collection)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
