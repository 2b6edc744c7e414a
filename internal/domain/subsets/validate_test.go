package subsets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

func TestIsCleanID(t *testing.T) {
	for _, id := range []string{"abc", "a-b_c", "0123", "kommunegrupperinger-2020"} {
		assert.True(t, IsCleanID(id), id)
	}
	for _, id := range []string{"", "a b", "a/b", "a.b", "æøå", string(make([]byte, MaxIDLength+1))} {
		assert.False(t, IsCleanID(id), id)
	}
	assert.ErrorIs(t, CheckID("series", "../x"), apierr.ErrIllegalID)
}

func TestParseVersionRef(t *testing.T) {
	assert.Equal(t, "v1", ParseVersionRef("s", "s_v1"))
	assert.Equal(t, "v1", ParseVersionRef("s", "v1"))
	assert.Equal(t, "s_", ParseVersionRef("s", "s_"))
	assert.Equal(t, "v_1", ParseVersionRef("my_series", "my_series_v_1"))
}

func TestVersionValidate(t *testing.T) {
	v := openVersion("v1", "2020-01-01", "")
	require.NoError(t, v.Validate())

	empty := openVersion("v1", "2020-01-01", "")
	empty.Codes = nil
	err := empty.Validate()
	require.Error(t, err)
	var ve *apierr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Messages, 1)

	draft := openVersion("v1", "2020-01-01", "")
	draft.AdministrativeStatus = StatusDraft
	draft.Codes = nil
	assert.NoError(t, draft.Validate())

	inverted := openVersion("v1", "2020-01-01", "2019-01-01")
	assert.ErrorIs(t, inverted.Validate(), apierr.ErrValidation)

	same := openVersion("v1", "2020-01-01", "2020-01-01")
	assert.ErrorIs(t, same.Validate(), apierr.ErrValidation)

	bad := openVersion("v1", "2020-01-01", "")
	bad.AdministrativeStatus = "PUBLISHED"
	assert.ErrorIs(t, bad.Validate(), apierr.ErrValidation)

	missing := openVersion("v1", "2020-01-01", "")
	missing.Codes = []Code{{ClassificationID: "131"}}
	assert.ErrorIs(t, missing.Validate(), apierr.ErrValidation)

	dup := openVersion("v1", "2020-01-01", "")
	dup.Codes = append(dup.Codes, dup.Codes[0])
	assert.ErrorIs(t, dup.Validate(), apierr.ErrValidation)
}

func TestSeriesValidate(t *testing.T) {
	s := &Series{ID: "series-1", ClassificationType: ClassificationTypeSubset}
	require.NoError(t, s.Validate())

	err := (&Series{ID: "bad id"}).Validate()
	var ve *apierr.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Messages, 1)
	assert.Contains(t, ve.Messages[0], "ID")
	assert.ErrorIs(t, (&Series{}).Validate(), apierr.ErrValidation)
	assert.ErrorIs(t, (&Series{ID: "ok", ClassificationType: "Classification"}).Validate(), apierr.ErrValidation)
	assert.ErrorIs(t, (&Series{ID: "ok", Name: []MultilingualText{{LanguageText: "x"}}}).Validate(), apierr.ErrValidation)
}

func TestImmutableChanges(t *testing.T) {
	prev := openVersion("v1", "2020-01-01", "")
	next := prev.Clone()
	next.ValidUntil = DatePtr("2020-12-31")
	next.LastUpdatedBy = "someone"
	next.StatisticalUnits = []string{"person"}
	assert.Empty(t, ImmutableChanges(prev, next))

	moved := prev.Clone()
	moved.ValidFrom = MustDate("2020-02-01")
	assert.Len(t, ImmutableChanges(prev, moved), 1)

	recoded := prev.Clone()
	recoded.Codes = append(recoded.Codes, Code{ClassificationID: "131", Code: "0302"})
	assert.Len(t, ImmutableChanges(prev, recoded), 1)

	renamed := prev.Clone()
	renamed.Codes[0].Name = "Christiania"
	assert.Len(t, ImmutableChanges(prev, renamed), 1)

	relevelled := prev.Clone()
	relevelled.Codes[0].Level = "2"
	assert.Len(t, ImmutableChanges(prev, relevelled), 1)

	named := prev.Clone()
	named.Codes[0].Name = "Oslo"
	enriched := named.Clone()
	enriched.Codes[0].Name = ""
	assert.Empty(t, ImmutableChanges(named, enriched), "blank name is filled from the catalog")

	unpublished := prev.Clone()
	unpublished.AdministrativeStatus = StatusDraft
	assert.Len(t, ImmutableChanges(prev, unpublished), 1)
}
