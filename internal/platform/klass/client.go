package klass

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/envutil"
	"github.com/yungbote/subsets-backend/internal/platform/httpx"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

const DefaultBaseURL = "https://data.ssb.no/api/klass/v1/classifications"

// Client reads codes and classification metadata from the external catalog.
type Client interface {
	Codes(ctx context.Context, classificationID string, from subsets.Date, to *subsets.Date, selectCodes []string) ([]CodeRecord, error)
	Classification(ctx context.Context, classificationID string) (*Classification, error)
	Ping(ctx context.Context) bool
	// CodeHref is the canonical locator of a single code.
	CodeHref(classificationID, code string) string
}

type CodeRecord struct {
	Code                      string        `json:"code"`
	ParentCode                string        `json:"parentCode,omitempty"`
	Level                     string        `json:"level"`
	Name                      string        `json:"name"`
	ShortName                 string        `json:"shortName,omitempty"`
	ValidFromInRequestedRange *subsets.Date `json:"validFromInRequestedRange,omitempty"`
	ValidToInRequestedRange   *subsets.Date `json:"validToInRequestedRange,omitempty"`
}

type ClassificationVersion struct {
	Name      string        `json:"name"`
	ValidFrom subsets.Date  `json:"validFrom"`
	ValidTo   *subsets.Date `json:"validTo,omitempty"`
	Links     struct {
		Self subsets.Link `json:"self"`
	} `json:"_links"`
}

func (v ClassificationVersion) Href() string { return v.Links.Self.Href }

type Classification struct {
	Name             string                  `json:"name"`
	StatisticalUnits []string                `json:"statisticalUnits"`
	Versions         []ClassificationVersion `json:"versions"`
}

// VersionsIntersecting returns the self links of the classification versions sharing a day with [from, to].
func (c *Classification) VersionsIntersecting(from subsets.Date, to *subsets.Date) []string {
	out := []string{}
	for _, v := range c.Versions {
		p := subsets.ValidityPeriod{From: v.ValidFrom, Until: inclusiveEnd(v.ValidTo)}
		if p.Intersects(from, to) && v.Href() != "" {
			out = append(out, v.Href())
		}
	}
	return out
}

// Catalog validTo dates are exclusive.
func inclusiveEnd(validTo *subsets.Date) *subsets.Date {
	if validTo == nil || validTo.IsZero() {
		return nil
	}
	d := validTo.AddDays(-1)
	return &d
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: envutil.String("API_KLASS", DefaultBaseURL),
		Timeout: envutil.Seconds("HTTP_CLIENT_TIMEOUT_SECONDS", 30*time.Second),
	}
}

type client struct {
	log  *logger.Logger
	base string
	http *httpx.Client
}

func New(log *logger.Logger, cfg Config, obs httpx.Observer) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid catalog url %q: %w", base, err)
	}
	return &client{
		log:  log.With("client", "klass"),
		base: base,
		http: httpx.New("klass", cfg.Timeout, obs),
	}, nil
}

type codesResponse struct {
	Codes []CodeRecord `json:"codes"`
}

func (c *client) Codes(ctx context.Context, classificationID string, from subsets.Date, to *subsets.Date, selectCodes []string) ([]CodeRecord, error) {
	if err := subsets.CheckID("classification", classificationID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("from", from.String())
	if to != nil {
		q.Set("to", to.String())
	}
	if len(selectCodes) > 0 {
		q.Set("selectCodes", strings.Join(selectCodes, ","))
	}
	u := fmt.Sprintf("%s/%s/codes.json?%s", c.base, url.PathEscape(classificationID), q.Encode())

	var out codesResponse
	if err := c.http.GetJSON(ctx, u, &out); err != nil {
		c.log.Warn("catalog codes lookup failed", "classification_id", classificationID, "error", err)
		return nil, err
	}
	return out.Codes, nil
}

func (c *client) Classification(ctx context.Context, classificationID string) (*Classification, error) {
	if err := subsets.CheckID("classification", classificationID); err != nil {
		return nil, err
	}
	var out Classification
	if err := c.http.GetJSON(ctx, c.base+"/"+url.PathEscape(classificationID), &out); err != nil {
		c.log.Warn("catalog classification lookup failed", "classification_id", classificationID, "error", err)
		return nil, err
	}
	return &out, nil
}

func (c *client) Ping(ctx context.Context) bool {
	status, _, err := c.http.Do(ctx, http.MethodGet, c.base, nil)
	return err == nil && httpx.IsSuccess(status)
}

func (c *client) CodeHref(classificationID, code string) string {
	return fmt.Sprintf("%s/%s/codes?selectCodes=%s", c.base, url.PathEscape(classificationID), url.QueryEscape(code))
}
