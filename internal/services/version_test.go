package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

func TestCreateVersion_First(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")

	v, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)
	assert.NotEmpty(t, v.VersionID)
	assert.Equal(t, "s1", v.SeriesID)
	assert.Equal(t, "2024-07-01", v.CreatedDate.String())
	assert.Equal(t, int64(1), v.Revision)
	assert.Equal(t, []string{"Kommune"}, v.StatisticalUnits)
	assert.Equal(t, VersionHref("s1", v.VersionID), v.Links.Self.Href)

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{v.VersionID}, s.Versions)
	assert.Equal(t, types.StatusOpen, s.AdministrativeStatus)
	assert.Equal(t, "2023-01-01", s.ValidFrom.String())
	assert.Nil(t, s.ValidUntil)
	assert.Equal(t, []string{"Kommune"}, s.StatisticalUnits)
}

func TestCreateVersion_ClosesPreviousLatest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")

	v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)
	v2, err := f.versions.Create(ctx, "s1", openInput("2024-06-01", "", oslo(), stavanger()))
	require.NoError(t, err)
	assert.Nil(t, v2.ValidUntil)

	back, err := f.versions.Get(ctx, "s1", v1.VersionID)
	require.NoError(t, err)
	require.NotNil(t, back.ValidUntil)
	assert.Equal(t, "2024-05-31", back.ValidUntil.String())
	assert.Equal(t, int64(2), back.Revision)

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, s.Versions, 2)
	assert.Equal(t, "2023-01-01", s.ValidFrom.String())
	assert.Nil(t, s.ValidUntil)
}

func TestCreateVersion_NeverOverwritesExplicitValidUntil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")

	v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "2023-12-31", oslo()))
	require.NoError(t, err)
	_, err = f.versions.Create(ctx, "s1", openInput("2024-06-01", "", oslo()))
	require.NoError(t, err)

	back, err := f.versions.Get(ctx, "s1", v1.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", back.ValidUntil.String())
	assert.Equal(t, int64(1), back.Revision)
}

func TestCreateVersion_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	_, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)

	_, err = f.versions.Create(ctx, "s1", openInput("2023-01-01", "2023-02-01", oslo()))
	assert.ErrorIs(t, err, apierr.ErrValidation, "same validFrom")

	_, err = f.versions.Create(ctx, "s1", draftInput("2023-01-01", "", oslo()))
	assert.ErrorIs(t, err, apierr.ErrValidation, "same validFrom on a draft")

	_, err = f.versions.Create(ctx, "s1", openInput("2025-01-01", ""))
	assert.ErrorIs(t, err, apierr.ErrValidation, "open with empty codes")

	_, err = f.versions.Create(ctx, "s1", openInput("2025-01-01", "2024-01-01", oslo()))
	assert.ErrorIs(t, err, apierr.ErrValidation, "validFrom after validUntil")

	_, err = f.versions.Create(ctx, "s1", openInput("2023-01-02", "", oslo()))
	assert.ErrorIs(t, err, apierr.ErrValidation, "previous would be closed to an empty period")

	_, err = f.versions.Create(ctx, "missing", openInput("2025-01-01", "", oslo()))
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = f.versions.Create(ctx, "bad id", openInput("2025-01-01", "", oslo()))
	assert.ErrorIs(t, err, apierr.ErrIllegalID)

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, s.Versions, 1)
}

func TestCreateVersion_CatalogFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)

	f.catalog.failing["7"] = true
	_, err = f.versions.Create(ctx, "s1", openInput("2024-06-01", "", oslo(), farming()))
	require.ErrorIs(t, err, apierr.ErrUpstream)

	back, err := f.versions.Get(ctx, "s1", v1.VersionID)
	require.NoError(t, err)
	assert.Nil(t, back.ValidUntil)
	docs, _ := f.store.List(ctx, types.VersionCollection)
	assert.Len(t, docs, 1)
}

func TestUpdateVersion_OpenIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)

	changed := v.Clone()
	changed.Codes = append(changed.Codes, stavanger())
	_, err = f.versions.Update(ctx, "s1", v.VersionID, changed)
	assert.ErrorIs(t, err, apierr.ErrValidation)

	moved := v.Clone()
	moved.ValidFrom = types.MustDate("2023-02-01")
	_, err = f.versions.Update(ctx, "s1", v.VersionID, moved)
	assert.ErrorIs(t, err, apierr.ErrValidation)

	closing := v.Clone()
	closing.ValidUntil = types.DatePtr("2023-12-31")
	closing.LastUpdatedBy = "editor"
	updated, err := f.versions.Update(ctx, "s1", "s1_"+v.VersionID, closing)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", updated.ValidUntil.String())
	assert.Equal(t, "editor", updated.LastUpdatedBy)
	assert.Equal(t, v.CreatedDate.String(), updated.CreatedDate.String())

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", s.ValidUntil.String())
}

func TestUpdateVersion_StaleRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v, err := f.versions.Create(ctx, "s1", draftInput("2023-01-01", "", oslo()))
	require.NoError(t, err)

	first := v.Clone()
	first.LastUpdatedBy = "a"
	_, err = f.versions.Update(ctx, "s1", v.VersionID, first)
	require.NoError(t, err)

	stale := v.Clone()
	stale.LastUpdatedBy = "b"
	_, err = f.versions.Update(ctx, "s1", v.VersionID, stale)
	assert.ErrorIs(t, err, apierr.ErrConflict)
}

func TestUpdateVersion_PublishingDraftClosesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)
	draft, err := f.versions.Create(ctx, "s1", draftInput("2024-06-01", "", oslo(), farming()))
	require.NoError(t, err)

	back, _ := f.versions.Get(ctx, "s1", v1.VersionID)
	assert.Nil(t, back.ValidUntil, "a draft does not close the previous version")

	publish := draft.Clone()
	publish.AdministrativeStatus = types.StatusOpen
	published, err := f.versions.Update(ctx, "s1", draft.VersionID, publish)
	require.NoError(t, err)
	assert.True(t, published.IsOpen())

	back, _ = f.versions.Get(ctx, "s1", v1.VersionID)
	require.NotNil(t, back.ValidUntil)
	assert.Equal(t, "2024-05-31", back.ValidUntil.String())

	s, _ := f.series.Get(ctx, "s1")
	assert.Equal(t, []string{"Foretak", "Kommune", "Virksomhet"}, s.StatisticalUnits)
}

func TestUpdateVersion_DraftMayNotPublishEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	draft, err := f.versions.Create(ctx, "s1", draftInput("2024-06-01", ""))
	require.NoError(t, err)

	publish := draft.Clone()
	publish.AdministrativeStatus = types.StatusOpen
	_, err = f.versions.Update(ctx, "s1", draft.VersionID, publish)
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestDeleteVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
	require.NoError(t, err)
	v2, err := f.versions.Create(ctx, "s1", draftInput("2024-06-01", "", farming()))
	require.NoError(t, err)

	require.NoError(t, f.versions.Delete(ctx, "s1", v1.VersionID))
	_, err = f.versions.Get(ctx, "s1", v1.VersionID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{v2.VersionID}, s.Versions)
	assert.Equal(t, types.StatusDraft, s.AdministrativeStatus)
	assert.Equal(t, []string{"Foretak", "Kommune", "Virksomhet"}, s.StatisticalUnits, "units are never removed")

	assert.ErrorIs(t, f.versions.Delete(ctx, "s1", v1.VersionID), apierr.ErrNotFound)
}

func TestUpdateVersion_OpenMiddleVersionShrinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustSeries(t, "s1")
	v1, err := f.versions.Create(ctx, "s1", openInput("2020-01-01", "2020-12-31", oslo()))
	require.NoError(t, err)
	v2, err := f.versions.Create(ctx, "s1", openInput("2021-01-01", "2021-12-31", oslo()))
	require.NoError(t, err)
	v3, err := f.versions.Create(ctx, "s1", openInput("2022-01-01", "", oslo()))
	require.NoError(t, err)

	shrunk := v2.Clone()
	shrunk.ValidUntil = types.DatePtr("2021-06-30")
	updated, err := f.versions.Update(ctx, "s1", v2.VersionID, shrunk)
	require.NoError(t, err)
	assert.Equal(t, "2021-06-30", updated.ValidUntil.String())

	grown := updated.Clone()
	grown.ValidUntil = types.DatePtr("2022-01-01")
	_, err = f.versions.Update(ctx, "s1", v2.VersionID, grown)
	assert.ErrorIs(t, err, apierr.ErrValidation, "shares a day with the next version")

	reopened := updated.Clone()
	reopened.ValidUntil = nil
	_, err = f.versions.Update(ctx, "s1", v2.VersionID, reopened)
	assert.ErrorIs(t, err, apierr.ErrValidation, "only the latest may be open ended")

	back, err := f.versions.Get(ctx, "s1", v3.VersionID)
	require.NoError(t, err)
	assert.Nil(t, back.ValidUntil)
	assert.Equal(t, int64(1), back.Revision)
	back, err = f.versions.Get(ctx, "s1", v1.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "2020-12-31", back.ValidUntil.String())

	s, err := f.series.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01", s.ValidFrom.String())
	assert.Nil(t, s.ValidUntil)
}

func TestCreateVersion_FailedCloseWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"upstream", apierr.Upstream("PUT version", 503, []byte("unavailable")), apierr.ErrUpstream},
		{"conflict", apierr.Conflict("version was changed concurrently"), apierr.ErrConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var puts *failingPuts
			f := newFixtureOn(t, func(mem *docstore.MemoryStore) docstore.Store {
				puts = &failingPuts{MemoryStore: mem, ids: map[string]bool{}}
				return puts
			})
			ctx := context.Background()
			f.mustSeries(t, "s1")
			v1, err := f.versions.Create(ctx, "s1", openInput("2023-01-01", "", oslo()))
			require.NoError(t, err)

			puts.failOn(types.VersionDocumentID("s1", v1.VersionID), tc.err)
			_, err = f.versions.Create(ctx, "s1", openInput("2024-06-01", "", oslo(), stavanger()))
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, 1, puts.hits)

			s, err := f.series.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, []string{v1.VersionID}, s.Versions)
			assert.Nil(t, s.ValidUntil)

			back, err := f.versions.Get(ctx, "s1", v1.VersionID)
			require.NoError(t, err)
			assert.Nil(t, back.ValidUntil)
			assert.Equal(t, int64(1), back.Revision)
			docs, _ := f.store.List(ctx, types.VersionCollection)
			assert.Len(t, docs, 1)
		})
	}
}
