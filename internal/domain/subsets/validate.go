package subsets

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

const MaxIDLength = 128

var cleanIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var subsetValidate *validator.Validate

func init() {
	subsetValidate = validator.New()
	if err := subsetValidate.RegisterValidation("cleanid", func(fl validator.FieldLevel) bool {
		return IsCleanID(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register cleanid validation: %v", err))
	}
}

// IsCleanID reports whether id only holds letters, digits, '_' and '-'.
func IsCleanID(id string) bool {
	return id != "" && len(id) <= MaxIDLength && cleanIDRe.MatchString(id)
}

func CheckID(what, id string) error {
	if !IsCleanID(id) {
		return apierr.IllegalID(what, id)
	}
	return nil
}

// ParseVersionRef accepts either a bare version id or the "{seriesId}_{versionId}" form.
func ParseVersionRef(seriesID, ref string) string {
	if prefix := seriesID + "_"; strings.HasPrefix(ref, prefix) && len(ref) > len(prefix) {
		return strings.TrimPrefix(ref, prefix)
	}
	return ref
}

func (s *Series) Validate() error {
	var msgs []string
	if s.ClassificationType != "" && s.ClassificationType != ClassificationTypeSubset {
		msgs = append(msgs, fmt.Sprintf("classificationType must be %q", ClassificationTypeSubset))
	}
	msgs = append(msgs, structMessages(s)...)
	if len(msgs) > 0 {
		return apierr.Validation(msgs...)
	}
	return nil
}

// Validate checks the structural rules every stored version must satisfy.
func (v *Version) Validate() error {
	var msgs []string
	if v.ValidFrom.IsZero() {
		msgs = append(msgs, "validFrom is required and must be on the format YYYY-MM-DD")
	}
	if v.ValidUntil != nil && !v.ValidFrom.IsZero() && !v.ValidFrom.Before(*v.ValidUntil) {
		msgs = append(msgs, fmt.Sprintf("validFrom %s must be before validUntil %s", v.ValidFrom, v.ValidUntil))
	}
	if v.IsOpen() && len(v.Codes) == 0 {
		msgs = append(msgs, "a published subset version must have a non-empty code list")
	}
	seen := map[string]bool{}
	for _, c := range v.Codes {
		if c.ClassificationID == "" || c.Code == "" {
			continue
		}
		if seen[c.Key()] {
			msgs = append(msgs, fmt.Sprintf("code %s of classification %s appears more than once", c.Code, c.ClassificationID))
		}
		seen[c.Key()] = true
	}
	msgs = append(msgs, structMessages(v)...)
	if len(msgs) > 0 {
		return apierr.Validation(msgs...)
	}
	return nil
}

func structMessages(s any) []string {
	err := subsetValidate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "cleanid":
			out = append(out, fmt.Sprintf("%s %q must only contain letters, digits, '_' and '-'", field, fe.Value()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return out
}

// ImmutableChanges lists the fields an update would change on an already published version.
func ImmutableChanges(prev, next *Version) []string {
	var out []string
	if !prev.ValidFrom.Equal(next.ValidFrom) {
		out = append(out, "changes in validFrom are not allowed on a published subset version")
	}
	if !sameCodeList(prev.Codes, next.Codes) {
		out = append(out, "changes in the code list are not allowed on a published subset version")
	}
	if prev.AdministrativeStatus != next.AdministrativeStatus {
		out = append(out, "field 'administrativeStatus' was changed, and is not a changeable field")
	}
	if prev.SeriesID != next.SeriesID {
		out = append(out, "field 'seriesId' was changed, and is not a changeable field")
	}
	if !sameTexts(prev.VersionRationale, next.VersionRationale) {
		out = append(out, "field 'versionRationale' was changed, and is not a changeable field")
	}
	return out
}

func sameCodeList(a, b []Code) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key() != b[i].Key() {
			return false
		}
		// Blank name or level is filled from the catalog again; anything else must match.
		if b[i].Name != "" && b[i].Name != a[i].Name {
			return false
		}
		if b[i].Level != "" && b[i].Level != a[i].Level {
			return false
		}
	}
	return true
}

func sameTexts(a, b []MultilingualText) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
