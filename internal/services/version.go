package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/subsets-backend/internal/data/repos"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/locker"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

type VersionService interface {
	Create(ctx context.Context, seriesID string, in *types.Version) (*types.Version, error)
	Update(ctx context.Context, seriesID, versionRef string, in *types.Version) (*types.Version, error)
	Get(ctx context.Context, seriesID, versionRef string) (*types.Version, error)
	Delete(ctx context.Context, seriesID, versionRef string) error
}

type versionService struct {
	log         *logger.Logger
	seriesRepo  repos.SeriesRepo
	versionRepo repos.VersionRepo
	resolver    *URNResolver
	locks       locker.Locker
	concurrency int
	now         func() time.Time
}

func NewVersionService(
	log *logger.Logger,
	seriesRepo repos.SeriesRepo,
	versionRepo repos.VersionRepo,
	resolver *URNResolver,
	locks locker.Locker,
	concurrency int,
) VersionService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &versionService{
		log:         log.With("service", "VersionService"),
		seriesRepo:  seriesRepo,
		versionRepo: versionRepo,
		resolver:    resolver,
		locks:       locks,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (vs *versionService) lockSeries(ctx context.Context, seriesID string) (func(), error) {
	return vs.locks.Lock(ctx, "series:"+seriesID)
}

func (vs *versionService) Get(ctx context.Context, seriesID, versionRef string) (*types.Version, error) {
	if err := types.CheckID("series", seriesID); err != nil {
		return nil, err
	}
	v, err := vs.versionRepo.Get(ctx, seriesID, types.ParseVersionRef(seriesID, versionRef))
	if err != nil {
		return nil, err
	}
	return withVersionLinks(v), nil
}

func (vs *versionService) Create(ctx context.Context, seriesID string, in *types.Version) (*types.Version, error) {
	if err := types.CheckID("series", seriesID); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, apierr.Validation("version body is required")
	}
	if in.SeriesID != "" && in.SeriesID != seriesID {
		return nil, apierr.Validationf("seriesId %q in body does not match series %q", in.SeriesID, seriesID)
	}

	unlock, err := vs.lockSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	series, err := vs.seriesRepo.Get(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	v := in.Clone()
	v.VersionID = uuid.NewString()
	v.SeriesID = seriesID
	d := today(vs.now)
	v.CreatedDate = &d
	v.LastModified = nowUTC(vs.now)
	v.Revision = 0
	withVersionLinks(v)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	siblings, err := loadSeriesVersions(ctx, vs.versionRepo, series, vs.concurrency)
	if err != nil {
		return nil, err
	}
	overlap, err := types.CheckOverlap(v, siblings)
	if err != nil {
		return nil, err
	}
	if err := vs.resolver.EnrichCodes(ctx, v); err != nil {
		return nil, err
	}

	if v.IsOpen() && overlap.ShouldClosePrevious() {
		closed, err := vs.closePrevious(ctx, overlap.LatestPublishedVersion, v)
		if err != nil {
			return nil, err
		}
		siblings = replaceVersion(siblings, closed)
	}

	created, err := vs.versionRepo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	series.Versions = append(series.Versions, created.VersionID)
	if err := vs.syncSeries(ctx, series, append(siblings, created)); err != nil {
		return nil, err
	}
	vs.log.Info("version created",
		"series_id", seriesID,
		"version_id", created.VersionID,
		"status", created.AdministrativeStatus,
		"valid_from", created.ValidFrom.String(),
	)
	return withVersionLinks(created), nil
}

func (vs *versionService) Update(ctx context.Context, seriesID, versionRef string, in *types.Version) (*types.Version, error) {
	if err := types.CheckID("series", seriesID); err != nil {
		return nil, err
	}
	versionID := types.ParseVersionRef(seriesID, versionRef)
	if err := types.CheckID("version", versionID); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, apierr.Validation("version body is required")
	}
	if in.VersionID != "" && in.VersionID != versionID {
		return nil, apierr.Validationf("versionId %q in body does not match %q", in.VersionID, versionID)
	}
	if in.SeriesID != "" && in.SeriesID != seriesID {
		return nil, apierr.Validationf("seriesId %q in body does not match series %q", in.SeriesID, seriesID)
	}

	unlock, err := vs.lockSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	series, err := vs.seriesRepo.Get(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	prev, err := vs.versionRepo.Get(ctx, seriesID, versionID)
	if err != nil {
		return nil, err
	}
	if in.Revision != 0 && in.Revision != prev.Revision {
		return nil, apierr.Conflict("version %s has revision %d, update was based on %d", versionID, prev.Revision, in.Revision)
	}

	next := in.Clone()
	next.VersionID = prev.VersionID
	next.SeriesID = prev.SeriesID
	next.CreatedDate = prev.CreatedDate
	next.LastModified = nowUTC(vs.now)
	next.Revision = prev.Revision
	withVersionLinks(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	datesChanged := !prev.ValidFrom.Equal(next.ValidFrom) || !types.SameDatePtr(prev.ValidUntil, next.ValidUntil)
	var overlap *types.OverlapResult
	var siblings []*types.Version
	switch {
	case prev.IsOpen():
		if changes := types.ImmutableChanges(prev, next); len(changes) > 0 {
			return nil, apierr.Validation(changes...)
		}
		if datesChanged {
			if siblings, err = loadSeriesVersions(ctx, vs.versionRepo, series, vs.concurrency); err != nil {
				return nil, err
			}
			if err = types.CheckPeriodChange(next, siblings); err != nil {
				return nil, err
			}
		}
	case next.IsOpen() || datesChanged:
		if siblings, err = loadSeriesVersions(ctx, vs.versionRepo, series, vs.concurrency); err != nil {
			return nil, err
		}
		if overlap, err = types.CheckOverlap(next, siblings); err != nil {
			return nil, err
		}
	}

	if err := vs.resolver.EnrichCodes(ctx, next); err != nil {
		return nil, err
	}
	if overlap != nil && next.IsOpen() && overlap.ShouldClosePrevious() {
		closed, err := vs.closePrevious(ctx, overlap.LatestPublishedVersion, next)
		if err != nil {
			return nil, err
		}
		siblings = replaceVersion(siblings, closed)
	}

	updated, err := vs.versionRepo.Update(ctx, next)
	if err != nil {
		return nil, err
	}
	if siblings == nil {
		if siblings, err = loadSeriesVersions(ctx, vs.versionRepo, series, vs.concurrency); err != nil {
			return nil, err
		}
	}
	if err := vs.syncSeries(ctx, series, replaceVersion(siblings, updated)); err != nil {
		return nil, err
	}
	vs.log.Info("version updated",
		"series_id", seriesID,
		"version_id", updated.VersionID,
		"status", updated.AdministrativeStatus,
	)
	return withVersionLinks(updated), nil
}

func (vs *versionService) Delete(ctx context.Context, seriesID, versionRef string) error {
	if err := types.CheckID("series", seriesID); err != nil {
		return err
	}
	versionID := types.ParseVersionRef(seriesID, versionRef)
	if err := types.CheckID("version", versionID); err != nil {
		return err
	}

	unlock, err := vs.lockSeries(ctx, seriesID)
	if err != nil {
		return err
	}
	defer unlock()

	series, err := vs.seriesRepo.Get(ctx, seriesID)
	if err != nil {
		return err
	}
	if err := vs.versionRepo.Delete(ctx, seriesID, versionID); err != nil {
		if !errors.Is(err, apierr.ErrNotFound) || !series.HasVersion(versionID) {
			return err
		}
		vs.log.Warn("series referenced a missing version, dropping the reference", "series_id", seriesID, "version_id", versionID)
	}
	series.RemoveVersion(versionID)
	remaining, err := loadSeriesVersions(ctx, vs.versionRepo, series, vs.concurrency)
	if err != nil {
		return err
	}
	if err := vs.syncSeries(ctx, series, remaining); err != nil {
		return err
	}
	vs.log.Info("version deleted", "series_id", seriesID, "version_id", versionID)
	return nil
}

// closePrevious ends the open ended latest version the day before the candidate starts.
func (vs *versionService) closePrevious(ctx context.Context, latest, candidate *types.Version) (*types.Version, error) {
	if latest.ValidUntil != nil {
		return latest, nil
	}
	until := candidate.ValidFrom.AddDays(-1)
	if !latest.ValidFrom.Before(until) {
		return nil, apierr.Validationf(
			"closing version %s valid from %s the day before %s would leave it without a validity period",
			latest.VersionID, latest.ValidFrom, candidate.ValidFrom)
	}
	prev := latest.Clone()
	prev.ValidUntil = &until
	prev.LastModified = nowUTC(vs.now)
	closed, err := vs.versionRepo.Update(ctx, prev)
	if err != nil {
		vs.log.Error("closing previous version failed", "series_id", prev.SeriesID, "version_id", prev.VersionID, "error", err)
		if errors.Is(err, apierr.ErrConflict) || errors.Is(err, apierr.ErrUpstream) {
			return nil, err
		}
		return nil, apierr.UpstreamCause("close previous version "+prev.VersionID, err)
	}
	vs.log.Info("closed previous version",
		"series_id", closed.SeriesID,
		"version_id", closed.VersionID,
		"valid_until", until.String(),
	)
	return withVersionLinks(closed), nil
}

// syncSeries recomputes the series envelope and propagates statistical units.
func (vs *versionService) syncSeries(ctx context.Context, series *types.Series, versions []*types.Version) error {
	units := [][]string{series.StatisticalUnits}
	for _, v := range versions {
		units = append(units, v.StatisticalUnits)
	}
	series.StatisticalUnits = types.UnionUnits(units...)
	series.ApplyEnvelope(versions)
	series.LastModified = nowUTC(vs.now)
	if _, err := vs.seriesRepo.Update(ctx, series); err != nil {
		vs.log.Error("series update after version write failed", "series_id", series.ID, "error", err)
		return err
	}
	return nil
}

func replaceVersion(list []*types.Version, v *types.Version) []*types.Version {
	out := make([]*types.Version, 0, len(list)+1)
	found := false
	for _, x := range list {
		if x.VersionID == v.VersionID {
			out = append(out, v)
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}
