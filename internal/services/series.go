package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yungbote/subsets-backend/internal/data/repos"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/locker"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

type SeriesService interface {
	Create(ctx context.Context, in *types.Series) (*types.Series, error)
	Get(ctx context.Context, id string) (*types.Series, error)
	Update(ctx context.Context, id string, in *types.Series) (*types.Series, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, includeDrafts, includeFuture, includeExpired bool) ([]*types.Series, error)
	ListVersions(ctx context.Context, id string, includeFuture, includeDrafts bool) ([]*types.Version, error)
	CodesAt(ctx context.Context, id string, at types.Date, includeDrafts, includeFuture bool) ([]types.Code, error)
	CurrentCodes(ctx context.Context, id string, includeDrafts, includeFuture bool) ([]types.Code, error)
	CodesInRange(ctx context.Context, id string, from types.Date, to *types.Date, includeDrafts, includeFuture bool) ([]types.CodeWithVersions, error)
	Schema(ctx context.Context) (json.RawMessage, error)
}

type seriesService struct {
	log         *logger.Logger
	seriesRepo  repos.SeriesRepo
	versionRepo repos.VersionRepo
	locks       locker.Locker
	concurrency int
	now         func() time.Time
}

func NewSeriesService(
	log *logger.Logger,
	seriesRepo repos.SeriesRepo,
	versionRepo repos.VersionRepo,
	locks locker.Locker,
	concurrency int,
) SeriesService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &seriesService{
		log:         log.With("service", "SeriesService"),
		seriesRepo:  seriesRepo,
		versionRepo: versionRepo,
		locks:       locks,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (ss *seriesService) Create(ctx context.Context, in *types.Series) (*types.Series, error) {
	if in == nil || in.ID == "" {
		return nil, apierr.Validation("series id is required")
	}
	if err := types.CheckID("series", in.ID); err != nil {
		return nil, err
	}
	s := *in
	d := today(ss.now)
	s.CreatedDate = &d
	s.LastModified = nowUTC(ss.now)
	s.ClassificationType = types.ClassificationTypeSubset
	s.Versions = []string{}
	s.AdministrativeStatus = types.StatusDraft
	s.ValidFrom = nil
	s.ValidUntil = nil
	s.StatisticalUnits = types.UnionUnits(in.StatisticalUnits)
	withSeriesLinks(&s)

	created, err := ss.seriesRepo.Create(ctx, &s)
	if err != nil {
		return nil, err
	}
	ss.log.Info("series created", "series_id", created.ID)
	return withSeriesLinks(created), nil
}

func (ss *seriesService) Get(ctx context.Context, id string) (*types.Series, error) {
	if err := types.CheckID("series", id); err != nil {
		return nil, err
	}
	s, err := ss.seriesRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return withSeriesLinks(s), nil
}

// Update replaces descriptive metadata. Versions, creation date, envelope and
// revision stay as stored; statistical units only grow.
func (ss *seriesService) Update(ctx context.Context, id string, in *types.Series) (*types.Series, error) {
	if err := types.CheckID("series", id); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, apierr.Validation("series body is required")
	}
	if in.ID != "" && in.ID != id {
		return nil, apierr.Validationf("id %q in body does not match %q", in.ID, id)
	}

	unlock, err := ss.locks.Lock(ctx, "series:"+id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stored, err := ss.seriesRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Revision != 0 && in.Revision != stored.Revision {
		return nil, apierr.Conflict("series %s has revision %d, update was based on %d", id, stored.Revision, in.Revision)
	}
	if !sameVersionRefs(id, stored.Versions, in.Versions) {
		return nil, apierr.Validation("the versions of a series can not be changed through the series, use the version endpoints")
	}

	next := *in
	next.ID = id
	next.ClassificationType = types.ClassificationTypeSubset
	next.Versions = stored.Versions
	next.CreatedDate = stored.CreatedDate
	next.AdministrativeStatus = stored.AdministrativeStatus
	next.ValidFrom = stored.ValidFrom
	next.ValidUntil = stored.ValidUntil
	next.Revision = stored.Revision
	next.StatisticalUnits = types.UnionUnits(stored.StatisticalUnits, in.StatisticalUnits)
	next.LastModified = nowUTC(ss.now)
	withSeriesLinks(&next)

	updated, err := ss.seriesRepo.Update(ctx, &next)
	if err != nil {
		return nil, err
	}
	ss.log.Info("series updated", "series_id", id)
	return withSeriesLinks(updated), nil
}

// A nil list means the caller left versions out of the body.
func sameVersionRefs(seriesID string, stored, submitted []string) bool {
	if submitted == nil {
		return true
	}
	if len(stored) != len(submitted) {
		return false
	}
	for i := range stored {
		if types.ParseVersionRef(seriesID, lastSegment(submitted[i])) != stored[i] {
			return false
		}
	}
	return true
}

func lastSegment(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}

func (ss *seriesService) Delete(ctx context.Context, id string) error {
	if err := types.CheckID("series", id); err != nil {
		return err
	}
	unlock, err := ss.locks.Lock(ctx, "series:"+id)
	if err != nil {
		return err
	}
	defer unlock()

	s, err := ss.seriesRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, ref := range s.Versions {
		versionID := types.ParseVersionRef(id, ref)
		if err := ss.versionRepo.Delete(ctx, id, versionID); err != nil && !errors.Is(err, apierr.ErrNotFound) {
			return err
		}
	}
	if err := ss.seriesRepo.Delete(ctx, id); err != nil {
		return err
	}
	ss.log.Info("series deleted", "series_id", id, "versions", len(s.Versions))
	return nil
}

func (ss *seriesService) List(ctx context.Context, includeDrafts, includeFuture, includeExpired bool) ([]*types.Series, error) {
	all, err := ss.seriesRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	d := today(ss.now)
	out := make([]*types.Series, 0, len(all))
	for _, s := range all {
		if !includeDrafts && s.AdministrativeStatus != types.StatusOpen {
			continue
		}
		if !includeFuture && s.IsFuture(d) {
			continue
		}
		if !includeExpired && s.IsExpired(d) {
			continue
		}
		out = append(out, withSeriesLinks(s))
	}
	return out, nil
}

func (ss *seriesService) ListVersions(ctx context.Context, id string, includeFuture, includeDrafts bool) ([]*types.Version, error) {
	if err := types.CheckID("series", id); err != nil {
		return nil, err
	}
	s, err := ss.seriesRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := loadSeriesVersions(ctx, ss.versionRepo, s, ss.concurrency)
	if err != nil {
		return nil, err
	}
	d := today(ss.now)
	out := make([]*types.Version, 0, len(all))
	for _, v := range all {
		if !includeDrafts && !v.IsOpen() {
			continue
		}
		if !includeFuture && v.ValidFrom.After(d) {
			continue
		}
		out = append(out, v)
	}
	types.SortVersions(out)
	return out, nil
}

func (ss *seriesService) CodesAt(ctx context.Context, id string, at types.Date, includeDrafts, includeFuture bool) ([]types.Code, error) {
	versions, err := ss.ListVersions(ctx, id, includeFuture, includeDrafts)
	if err != nil {
		return nil, err
	}
	v := types.FindValidAt(versions, at, includeDrafts)
	if v == nil {
		return []types.Code{}, nil
	}
	return v.Codes, nil
}

func (ss *seriesService) CurrentCodes(ctx context.Context, id string, includeDrafts, includeFuture bool) ([]types.Code, error) {
	return ss.CodesAt(ctx, id, today(ss.now), includeDrafts, includeFuture)
}

// CodesInRange merges the codes of every version intersecting [from, to]. A code is
// listed with all catalog versions seen for it, not only those valid over the whole range.
func (ss *seriesService) CodesInRange(ctx context.Context, id string, from types.Date, to *types.Date, includeDrafts, includeFuture bool) ([]types.CodeWithVersions, error) {
	if to != nil && !from.IsZero() && to.Before(from) {
		return nil, apierr.Validationf("from %s must not be after to %s", from, to)
	}
	versions, err := ss.ListVersions(ctx, id, includeFuture, includeDrafts)
	if err != nil {
		return nil, err
	}
	var hits []*types.Version
	for _, v := range versions {
		if v.Period().Intersects(from, to) {
			hits = append(hits, v)
		}
	}
	return types.MergeCodes(hits), nil
}

func (ss *seriesService) Schema(ctx context.Context) (json.RawMessage, error) {
	return ss.seriesRepo.Schema(ctx)
}
