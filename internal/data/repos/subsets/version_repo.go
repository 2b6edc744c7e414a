package subsets

import (
	"context"
	"encoding/json"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type VersionRepo interface {
	Get(ctx context.Context, seriesID, versionID string) (*types.Version, error)
	Create(ctx context.Context, v *types.Version) (*types.Version, error)
	// Update replaces the version if its stored revision still equals v.Revision.
	Update(ctx context.Context, v *types.Version) (*types.Version, error)
	Delete(ctx context.Context, seriesID, versionID string) error
	Schema(ctx context.Context) (json.RawMessage, error)
}

type versionRepo struct {
	collectionRepo
}

func NewVersionRepo(store docstore.Store, validator *schema.Validator, baseLog *logger.Logger) VersionRepo {
	return &versionRepo{collectionRepo{
		store:      store,
		validator:  validator,
		collection: types.VersionCollection,
		log:        baseLog.With("repo", "VersionRepo"),
	}}
}

func (r *versionRepo) Get(ctx context.Context, seriesID, versionID string) (*types.Version, error) {
	if err := types.CheckID("series", seriesID); err != nil {
		return nil, err
	}
	if err := types.CheckID("version", versionID); err != nil {
		return nil, err
	}
	var v types.Version
	if err := r.get(ctx, types.VersionDocumentID(seriesID, versionID), &v); err != nil {
		return nil, err
	}
	normalizeVersion(&v)
	return &v, nil
}

func (r *versionRepo) Create(ctx context.Context, v *types.Version) (*types.Version, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	cp := v.Clone()
	normalizeVersion(cp)
	cp.Revision = 1
	if err := r.create(ctx, cp.DocumentID(), cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func (r *versionRepo) Update(ctx context.Context, v *types.Version) (*types.Version, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	cp := v.Clone()
	normalizeVersion(cp)
	expected := cp.Revision
	cp.Revision = expected + 1
	if err := r.replace(ctx, cp.DocumentID(), cp, expected); err != nil {
		return nil, err
	}
	return cp, nil
}

func (r *versionRepo) Delete(ctx context.Context, seriesID, versionID string) error {
	return r.delete(ctx, types.VersionDocumentID(seriesID, versionID))
}

func normalizeVersion(v *types.Version) {
	if v.Codes == nil {
		v.Codes = []types.Code{}
	}
	for i := range v.Codes {
		if v.Codes[i].Versions == nil {
			v.Codes[i].Versions = []string{}
		}
	}
	if v.StatisticalUnits == nil {
		v.StatisticalUnits = []string{}
	}
}
