package subsets

import (
	"sort"
)

// ApplyEnvelope derives the series' status and validity from its versions.
func (s *Series) ApplyEnvelope(versions []*Version) {
	status := StatusDraft
	var open []*Version
	for _, v := range versions {
		if v.IsOpen() {
			open = append(open, v)
		}
	}
	pool := versions
	if len(open) > 0 {
		status = StatusOpen
		pool = open
	}
	if len(pool) == 0 {
		s.AdministrativeStatus = StatusDraft
		s.ValidFrom = nil
		s.ValidUntil = nil
		return
	}

	var from *Date
	var until *Date
	openEnded := false
	for _, v := range pool {
		f := v.ValidFrom
		if from == nil || f.Before(*from) {
			from = &f
		}
		if v.ValidUntil == nil {
			openEnded = true
			continue
		}
		if until == nil || v.ValidUntil.After(*until) {
			u := *v.ValidUntil
			until = &u
		}
	}
	if openEnded {
		until = nil
	}
	s.AdministrativeStatus = status
	s.ValidFrom = from
	s.ValidUntil = until
}

// UnionUnits merges statistical units, dropping blanks and duplicates, sorted.
func UnionUnits(sets ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, set := range sets {
		for _, u := range set {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

// SortVersions orders versions by validFrom, newest first.
func SortVersions(versions []*Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].ValidFrom.After(versions[j].ValidFrom)
	})
}

// FindValidAt picks the version valid on the given day, preferring OPEN over DRAFT.
func FindValidAt(versions []*Version, at Date, includeDrafts bool) *Version {
	var draft *Version
	for _, v := range versions {
		if !v.Period().Contains(at) {
			continue
		}
		if v.IsOpen() {
			return v
		}
		if includeDrafts && draft == nil {
			draft = v
		}
	}
	return draft
}

// MergeCodes collapses the codes of several versions by (classificationId, code, name, level),
// gathering every distinct catalog version link seen for each.
func MergeCodes(versions []*Version) []CodeWithVersions {
	type key struct{ classificationID, code, name, level string }
	idx := map[key]int{}
	out := []CodeWithVersions{}
	for _, v := range versions {
		for _, c := range v.Codes {
			k := key{c.ClassificationID, c.Code, c.Name, c.Level}
			i, ok := idx[k]
			if !ok {
				i = len(out)
				idx[k] = i
				out = append(out, CodeWithVersions{
					ClassificationID: c.ClassificationID,
					Code:             c.Code,
					Name:             c.Name,
					Level:            c.Level,
					Versions:         []string{},
				})
			}
			for _, link := range c.Versions {
				if !containsString(out[i].Versions, link) {
					out[i].Versions = append(out[i].Versions, link)
				}
			}
		}
	}
	for i := range out {
		sort.Strings(out[i].Versions)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].ClassificationID != out[b].ClassificationID {
			return out[a].ClassificationID < out[b].ClassificationID
		}
		return out[a].Code < out[b].Code
	})
	return out
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
