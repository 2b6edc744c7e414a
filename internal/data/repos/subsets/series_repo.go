package subsets

import (
	"context"
	"encoding/json"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type SeriesRepo interface {
	Get(ctx context.Context, id string) (*types.Series, error)
	List(ctx context.Context) ([]*types.Series, error)
	Create(ctx context.Context, s *types.Series) (*types.Series, error)
	// Update replaces the series if its stored revision still equals s.Revision.
	Update(ctx context.Context, s *types.Series) (*types.Series, error)
	Delete(ctx context.Context, id string) error
	Schema(ctx context.Context) (json.RawMessage, error)
}

type seriesRepo struct {
	collectionRepo
}

func NewSeriesRepo(store docstore.Store, validator *schema.Validator, baseLog *logger.Logger) SeriesRepo {
	return &seriesRepo{collectionRepo{
		store:      store,
		validator:  validator,
		collection: types.SeriesCollection,
		log:        baseLog.With("repo", "SeriesRepo"),
	}}
}

func (r *seriesRepo) Get(ctx context.Context, id string) (*types.Series, error) {
	if err := types.CheckID("series", id); err != nil {
		return nil, err
	}
	var s types.Series
	if err := r.get(ctx, id, &s); err != nil {
		return nil, err
	}
	normalizeSeries(&s)
	return &s, nil
}

func (r *seriesRepo) List(ctx context.Context) ([]*types.Series, error) {
	docs, err := r.store.List(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Series, 0, len(docs))
	for _, doc := range docs {
		var s types.Series
		if err := r.decode("", doc, &s); err != nil {
			r.log.Warn("skipping undecodable series document", "error", err)
			continue
		}
		normalizeSeries(&s)
		out = append(out, &s)
	}
	return out, nil
}

func (r *seriesRepo) Create(ctx context.Context, s *types.Series) (*types.Series, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cp := *s
	normalizeSeries(&cp)
	cp.Revision = 1
	if err := r.create(ctx, cp.ID, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *seriesRepo) Update(ctx context.Context, s *types.Series) (*types.Series, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cp := *s
	normalizeSeries(&cp)
	expected := cp.Revision
	cp.Revision = expected + 1
	if err := r.replace(ctx, cp.ID, &cp, expected); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *seriesRepo) Delete(ctx context.Context, id string) error {
	if err := types.CheckID("series", id); err != nil {
		return err
	}
	return r.delete(ctx, id)
}

func normalizeSeries(s *types.Series) {
	if s.Versions == nil {
		s.Versions = []string{}
	}
	if s.StatisticalUnits == nil {
		s.StatisticalUnits = []string{}
	}
	if s.ClassificationType == "" {
		s.ClassificationType = types.ClassificationTypeSubset
	}
	if s.AdministrativeStatus == "" {
		s.AdministrativeStatus = types.StatusDraft
	}
}
