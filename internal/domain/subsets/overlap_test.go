package subsets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

func openVersion(id, from string, until string) *Version {
	v := &Version{
		VersionID:            id,
		SeriesID:             "series",
		AdministrativeStatus: StatusOpen,
		ValidFrom:            MustDate(from),
		Codes:                []Code{{ClassificationID: "131", Code: "0301"}},
	}
	if until != "" {
		v.ValidUntil = DatePtr(until)
	}
	return v
}

func TestCheckOverlap_FirstVersion(t *testing.T) {
	res, err := CheckOverlap(openVersion("v1", "2020-01-01", ""), nil)
	require.NoError(t, err)
	assert.False(t, res.ExistOtherPublishedVersions)
	assert.True(t, res.IsNewLatestVersion)
	assert.True(t, res.IsNewFirstVersion)
	assert.False(t, res.ShouldClosePrevious())
}

func TestCheckOverlap_NewLatestClosesPrevious(t *testing.T) {
	v1 := openVersion("v1", "2023-01-01", "")
	res, err := CheckOverlap(openVersion("v2", "2024-06-01", ""), []*Version{v1})
	require.NoError(t, err)
	assert.True(t, res.IsNewLatestVersion)
	assert.False(t, res.IsNewFirstVersion)
	assert.Same(t, v1, res.LatestPublishedVersion)
	assert.True(t, res.ShouldClosePrevious())
}

func TestCheckOverlap_SameValidFromRejected(t *testing.T) {
	v1 := openVersion("v1", "2023-01-01", "")
	_, err := CheckOverlap(openVersion("v2", "2023-01-01", ""), []*Version{v1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrValidation))

	_, err = CheckOverlap(openVersion("v2", "2023-01-01", "2023-06-01"), []*Version{openVersion("v1", "2023-01-01", "2023-12-31")})
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCheckOverlap_BoundedOverlap(t *testing.T) {
	v1 := openVersion("v1", "2020-01-01", "2020-12-31")
	_, err := CheckOverlap(openVersion("v2", "2020-06-01", "2021-06-01"), []*Version{v1})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = CheckOverlap(openVersion("v2", "2019-06-01", "2020-01-01"), []*Version{v1})
	assert.ErrorIs(t, err, apierr.ErrValidation)

	_, err = CheckOverlap(openVersion("v2", "2019-01-01", "2021-12-31"), []*Version{v1})
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCheckOverlap_BoundedBeforeFirst(t *testing.T) {
	v1 := openVersion("v1", "2020-01-01", "")
	res, err := CheckOverlap(openVersion("v0", "2018-01-01", "2019-12-31"), []*Version{v1})
	require.NoError(t, err)
	assert.True(t, res.IsNewFirstVersion)
	assert.False(t, res.IsNewLatestVersion)
	assert.False(t, res.ShouldClosePrevious())
}

func TestCheckOverlap_OpenEndedMustBeLatest(t *testing.T) {
	v1 := openVersion("v1", "2023-01-01", "")
	_, err := CheckOverlap(openVersion("v0", "2022-01-01", ""), []*Version{v1})
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCheckOverlap_OpenEndedAfterClosedSibling(t *testing.T) {
	v1 := openVersion("v1", "2020-01-01", "2020-12-31")
	res, err := CheckOverlap(openVersion("v2", "2021-01-01", ""), []*Version{v1})
	require.NoError(t, err)
	assert.False(t, res.ShouldClosePrevious())

	_, err = CheckOverlap(openVersion("v2", "2020-12-31", ""), []*Version{v1})
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCheckOverlap_NotBetweenPublished(t *testing.T) {
	v1 := openVersion("v1", "2018-01-01", "2018-12-31")
	v3 := openVersion("v3", "2021-01-01", "2021-12-31")
	_, err := CheckOverlap(openVersion("v2", "2019-06-01", "2019-12-31"), []*Version{v1, v3})
	assert.ErrorIs(t, err, apierr.ErrValidation)
}

func TestCheckOverlap_IgnoresDraftsAndSelf(t *testing.T) {
	draft := openVersion("d", "2020-01-01", "")
	draft.AdministrativeStatus = StatusDraft
	self := openVersion("v1", "2020-01-01", "")
	res, err := CheckOverlap(openVersion("v1", "2020-01-01", ""), []*Version{draft, self})
	require.NoError(t, err)
	assert.False(t, res.ExistOtherPublishedVersions)
}

func TestCheckPeriodChange_MiddleVersionShrinks(t *testing.T) {
	v1 := openVersion("v1", "2020-01-01", "2020-12-31")
	v2 := openVersion("v2", "2021-01-01", "2021-12-31")
	v3 := openVersion("v3", "2022-01-01", "")
	siblings := []*Version{v1, v2, v3}

	shrunk := v2.Clone()
	shrunk.ValidUntil = DatePtr("2021-06-30")
	require.NoError(t, CheckPeriodChange(shrunk, siblings))

	grown := v2.Clone()
	grown.ValidUntil = DatePtr("2022-01-01")
	assert.ErrorIs(t, CheckPeriodChange(grown, siblings), apierr.ErrValidation)

	opened := v2.Clone()
	opened.ValidUntil = nil
	assert.ErrorIs(t, CheckPeriodChange(opened, siblings), apierr.ErrValidation)

	latest := v3.Clone()
	latest.ValidUntil = DatePtr("2023-12-31")
	require.NoError(t, CheckPeriodChange(latest, siblings))

	draft := openVersion("d1", "2021-03-01", "")
	draft.AdministrativeStatus = StatusDraft
	require.NoError(t, CheckPeriodChange(shrunk, append(siblings, draft)))
}
