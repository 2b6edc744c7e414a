package subsets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var yearMonthDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a calendar day without time of day or zone.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// IsYearMonthDay reports whether s is exactly on the form YYYY-MM-DD.
func IsYearMonthDay(s string) bool {
	if !yearMonthDayRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseDate accepts YYYY-MM-DD, and full timestamps whose date part is used.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	if !IsYearMonthDay(s) {
		return Date{}, fmt.Errorf("date %q must be on the format YYYY-MM-DD", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func DatePtr(s string) *Date {
	d := MustDate(s)
	return &d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) Compare(o Date) int {
	switch {
	case d.t.Before(o.t):
		return -1
	case d.t.After(o.t):
		return 1
	default:
		return 0
	}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SameDatePtr compares two optional dates, nil meaning open ended.
func SameDatePtr(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ValidityPeriod is the closed interval [From, Until]; a nil Until extends to infinity.
type ValidityPeriod struct {
	From  Date
	Until *Date
}

func (p ValidityPeriod) Contains(d Date) bool {
	if d.Before(p.From) {
		return false
	}
	return p.Until == nil || !d.After(*p.Until)
}

// Intersects reports whether the period shares at least one day with [from, to].
// A zero from or nil to leaves that side unbounded.
func (p ValidityPeriod) Intersects(from Date, to *Date) bool {
	if to != nil && p.From.After(*to) {
		return false
	}
	if !from.IsZero() && p.Until != nil && p.Until.Before(from) {
		return false
	}
	return true
}
