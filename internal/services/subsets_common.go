package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/subsets-backend/internal/data/repos"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

func SeriesHref(seriesID string) string {
	return "/subsets/" + seriesID
}

func VersionHref(seriesID, versionID string) string {
	return fmt.Sprintf("/subsets/%s/versions/%s", seriesID, versionID)
}

func withSeriesLinks(s *types.Series) *types.Series {
	s.Links = types.SelfLink(SeriesHref(s.ID))
	return s
}

func withVersionLinks(v *types.Version) *types.Version {
	v.Links = types.SelfLink(VersionHref(v.SeriesID, v.VersionID))
	return v
}

// loadSeriesVersions fetches every version the series references, in parallel.
// A dangling reference is an internal inconsistency.
func loadSeriesVersions(ctx context.Context, versions repos.VersionRepo, s *types.Series, limit int) ([]*types.Version, error) {
	out := make([]*types.Version, len(s.Versions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range s.Versions {
		i, id := i, types.ParseVersionRef(s.ID, id)
		g.Go(func() error {
			v, err := versions.Get(gctx, s.ID, id)
			if errors.Is(err, apierr.ErrNotFound) {
				return apierr.Inconsistent("series %s references version %s which does not exist", s.ID, id)
			}
			if err != nil {
				return err
			}
			out[i] = withVersionLinks(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func today(now func() time.Time) types.Date {
	return types.DateOf(now())
}

func nowUTC(now func() time.Time) *time.Time {
	t := now().UTC()
	return &t
}
