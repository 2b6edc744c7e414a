package subsets

import (
	"time"
)

const (
	StatusDraft = "DRAFT"
	StatusOpen  = "OPEN"

	ClassificationTypeSubset = "Subset"

	SeriesCollection  = "ClassificationSubsetSeries"
	VersionCollection = "ClassificationSubsetVersion"
)

type MultilingualText struct {
	LanguageCode string `json:"languageCode" validate:"required"`
	LanguageText string `json:"languageText"`
}

type Link struct {
	Href string `json:"href"`
}

type Links struct {
	Self *Link `json:"self,omitempty"`
}

func SelfLink(href string) *Links {
	return &Links{Self: &Link{Href: href}}
}

// Code is one catalog code referenced by a version.
type Code struct {
	URN              string `json:"urn,omitempty"`
	ClassificationID string `json:"classificationId" validate:"required"`
	Code             string `json:"code" validate:"required"`
	Name             string `json:"name,omitempty"`
	Level            string `json:"level,omitempty"`

	ValidFromInRequestedRange *Date `json:"validFromInRequestedRange,omitempty"`
	ValidToInRequestedRange   *Date `json:"validToInRequestedRange,omitempty"`

	// Versions holds links to the catalog classification versions the code is valid under.
	Versions []string `json:"versions"`
	Links    *Links   `json:"_links,omitempty"`
}

// Key identifies a code independently of its enrichment.
func (c Code) Key() string {
	return c.ClassificationID + ":" + c.Code
}

type Version struct {
	VersionID            string             `json:"versionId"`
	SeriesID             string             `json:"seriesId"`
	AdministrativeStatus string             `json:"administrativeStatus" validate:"required,oneof=DRAFT OPEN"`
	ValidFrom            Date               `json:"validFrom"`
	ValidUntil           *Date              `json:"validUntil,omitempty"`
	VersionRationale     []MultilingualText `json:"versionRationale,omitempty" validate:"dive"`
	Codes                []Code             `json:"codes" validate:"dive"`
	StatisticalUnits     []string           `json:"statisticalUnits"`
	CreatedDate          *Date              `json:"createdDate,omitempty"`
	LastModified         *time.Time         `json:"lastModified,omitempty"`
	LastUpdatedBy        string             `json:"lastUpdatedBy,omitempty"`
	Revision             int64              `json:"revision,omitempty"`
	Links                *Links             `json:"_links,omitempty"`
}

func (v *Version) IsOpen() bool  { return v != nil && v.AdministrativeStatus == StatusOpen }
func (v *Version) IsDraft() bool { return v != nil && v.AdministrativeStatus == StatusDraft }

func (v *Version) Period() ValidityPeriod {
	return ValidityPeriod{From: v.ValidFrom, Until: v.ValidUntil}
}

// DocumentID is the key of the version in the document store.
func (v *Version) DocumentID() string {
	return VersionDocumentID(v.SeriesID, v.VersionID)
}

func VersionDocumentID(seriesID, versionID string) string {
	return seriesID + "_" + versionID
}

// ClassificationIDs lists the distinct classifications referenced by the codes, in first-seen order.
func (v *Version) ClassificationIDs() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range v.Codes {
		if c.ClassificationID == "" || seen[c.ClassificationID] {
			continue
		}
		seen[c.ClassificationID] = true
		out = append(out, c.ClassificationID)
	}
	return out
}

func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	cp := *v
	if v.ValidUntil != nil {
		u := *v.ValidUntil
		cp.ValidUntil = &u
	}
	cp.Codes = append([]Code(nil), v.Codes...)
	for i := range cp.Codes {
		cp.Codes[i].Versions = append([]string(nil), v.Codes[i].Versions...)
	}
	cp.StatisticalUnits = append([]string(nil), v.StatisticalUnits...)
	cp.VersionRationale = append([]MultilingualText(nil), v.VersionRationale...)
	return &cp
}

type Series struct {
	ID                   string             `json:"id" validate:"cleanid"`
	ClassificationType   string             `json:"classificationType,omitempty"`
	ShortName            string             `json:"shortName,omitempty"`
	Name                 []MultilingualText `json:"name,omitempty" validate:"dive"`
	Description          []MultilingualText `json:"description,omitempty" validate:"dive"`
	OwningSection        string             `json:"owningSection,omitempty"`
	AdministrativeStatus string             `json:"administrativeStatus,omitempty" validate:"omitempty,oneof=DRAFT OPEN"`
	ValidFrom            *Date              `json:"validFrom,omitempty"`
	ValidUntil           *Date              `json:"validUntil,omitempty"`
	StatisticalUnits     []string           `json:"statisticalUnits"`
	Versions             []string           `json:"versions"`
	CreatedDate          *Date              `json:"createdDate,omitempty"`
	LastModified         *time.Time         `json:"lastModified,omitempty"`
	LastUpdatedBy        string             `json:"lastUpdatedBy,omitempty"`
	Revision             int64              `json:"revision,omitempty"`
	Links                *Links             `json:"_links,omitempty"`
}

func (s *Series) HasVersion(versionID string) bool {
	for _, id := range s.Versions {
		if id == versionID {
			return true
		}
	}
	return false
}

func (s *Series) RemoveVersion(versionID string) bool {
	out := s.Versions[:0]
	removed := false
	for _, id := range s.Versions {
		if id == versionID {
			removed = true
			continue
		}
		out = append(out, id)
	}
	s.Versions = out
	return removed
}

func (s *Series) IsFuture(today Date) bool {
	return s.ValidFrom != nil && s.ValidFrom.After(today)
}

func (s *Series) IsExpired(today Date) bool {
	return s.ValidUntil != nil && s.ValidUntil.Before(today)
}

// CodeWithVersions is one entry of a range query: a code and every catalog version seen for it.
type CodeWithVersions struct {
	ClassificationID string   `json:"classificationId"`
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Level            string   `json:"level"`
	Versions         []string `json:"versions"`
}
