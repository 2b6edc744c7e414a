package subsets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-31", d.String())

	d, err = ParseDate("2021-05-04T10:11:12Z")
	require.NoError(t, err)
	assert.Equal(t, "2021-05-04", d.String())

	for _, bad := range []string{"", "2020-1-1", "20200101", "2020-13-01", "2020-02-30", "abc"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustDate("2024-03-01")
	assert.Equal(t, "2024-02-29", d.AddDays(-1).String())
	assert.Equal(t, "2025-01-01", MustDate("2024-12-31").AddDays(1).String())
	assert.True(t, MustDate("2020-01-01").Before(d))
	assert.Equal(t, 0, d.Compare(MustDate("2024-03-01")))
}

func TestDateJSON(t *testing.T) {
	type doc struct {
		From  Date  `json:"from"`
		Until *Date `json:"until,omitempty"`
	}
	raw, err := json.Marshal(doc{From: MustDate("2020-01-01")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"2020-01-01"}`, string(raw))

	var out doc
	require.NoError(t, json.Unmarshal([]byte(`{"from":"2020-01-01","until":"2020-12-31"}`), &out))
	assert.Equal(t, "2020-12-31", out.Until.String())

	assert.Error(t, json.Unmarshal([]byte(`{"from":"01.01.2020"}`), &out))
}

func TestValidityPeriod(t *testing.T) {
	p := ValidityPeriod{From: MustDate("2020-01-01"), Until: DatePtr("2020-12-31")}
	assert.True(t, p.Contains(MustDate("2020-01-01")))
	assert.True(t, p.Contains(MustDate("2020-12-31")))
	assert.False(t, p.Contains(MustDate("2021-01-01")))
	assert.False(t, p.Contains(MustDate("2019-12-31")))

	open := ValidityPeriod{From: MustDate("2020-01-01")}
	assert.True(t, open.Contains(MustDate("2999-01-01")))

	assert.True(t, p.Intersects(MustDate("2020-12-31"), nil))
	assert.False(t, p.Intersects(MustDate("2021-01-01"), nil))
	assert.False(t, p.Intersects(Date{}, DatePtr("2019-12-31")))
	assert.True(t, p.Intersects(Date{}, nil))
}
