package subsets

import (
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

// OverlapResult describes where a candidate version lands among its published siblings.
type OverlapResult struct {
	ExistOtherPublishedVersions bool
	IsNewLatestVersion          bool
	IsNewFirstVersion           bool
	LatestPublishedVersion      *Version
}

// ShouldClosePrevious reports whether the previous latest version is open ended
// and must be given a validUntil the day before the candidate starts.
func (r *OverlapResult) ShouldClosePrevious() bool {
	return r.ExistOtherPublishedVersions && r.IsNewLatestVersion &&
		r.LatestPublishedVersion != nil && r.LatestPublishedVersion.ValidUntil == nil
}

// CheckOverlap validates the candidate's validity period against the OPEN siblings
// of the same series. DRAFT siblings and the candidate itself are ignored.
func CheckOverlap(candidate *Version, siblings []*Version) (*OverlapResult, error) {
	res := &OverlapResult{}
	from := candidate.ValidFrom
	until := candidate.ValidUntil

	var first, last *Date
	for _, s := range siblings {
		if s == nil || !s.IsOpen() {
			continue
		}
		if candidate.VersionID != "" && s.VersionID == candidate.VersionID {
			continue
		}
		res.ExistOtherPublishedVersions = true

		sFrom := s.ValidFrom
		if first == nil || sFrom.Before(*first) {
			f := sFrom
			first = &f
		}
		if last == nil || sFrom.After(*last) {
			l := sFrom
			last = &l
			res.LatestPublishedVersion = s
		}

		if from.Equal(sFrom) {
			return nil, apierr.Validationf(
				"validFrom %s collides with the validFrom of published version %s", from, s.VersionID)
		}

		period := s.Period()
		if until != nil {
			if period.Contains(*until) || period.Contains(from) {
				return nil, apierr.Validationf(
					"validity period %s to %s overlaps published version %s", from, until, s.VersionID)
			}
			if s.ValidUntil != nil && !from.After(sFrom) && !until.Before(*s.ValidUntil) {
				return nil, apierr.Validationf(
					"validity period %s to %s contains published version %s", from, until, s.VersionID)
			}
			continue
		}

		if !sFrom.Before(from) {
			return nil, apierr.Validationf(
				"a version without validUntil must start after every published version, but published version %s starts %s", s.VersionID, sFrom)
		}
		if s.ValidUntil != nil && !s.ValidUntil.Before(from) {
			return nil, apierr.Validationf(
				"published version %s is valid until %s, which is not before validFrom %s", s.VersionID, s.ValidUntil, from)
		}
	}

	if first != nil && !from.Before(*first) && !from.After(*last) {
		return nil, apierr.Validationf(
			"validFrom %s must be before %s or after %s, new versions can not be placed between published versions", from, first, last)
	}
	res.IsNewFirstVersion = first == nil || from.Before(*first)
	res.IsNewLatestVersion = last == nil || from.After(*last)
	return res, nil
}

// CheckPeriodChange validates a changed validUntil on a published version. The version
// keeps its position among its siblings, so only shared days and the open ended rule apply.
func CheckPeriodChange(candidate *Version, siblings []*Version) error {
	period := candidate.Period()
	for _, s := range siblings {
		if s == nil || !s.IsOpen() || s.VersionID == candidate.VersionID {
			continue
		}
		if period.Intersects(s.ValidFrom, s.ValidUntil) {
			return apierr.Validationf(
				"validity period %s to %s overlaps published version %s", candidate.ValidFrom, openEnded(candidate.ValidUntil), s.VersionID)
		}
		if candidate.ValidUntil == nil && !s.ValidFrom.Before(candidate.ValidFrom) {
			return apierr.Validationf(
				"only the latest published version can be without validUntil, but published version %s starts %s", s.VersionID, s.ValidFrom)
		}
	}
	return nil
}

func openEnded(d *Date) string {
	if d == nil {
		return "(open ended)"
	}
	return d.String()
}
