package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/klass"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

const urnPrefix = "urn:ssb:klass-api:classifications:"

// GenerateURN builds the identifier of one catalog code.
func GenerateURN(classificationID, code string) string {
	return fmt.Sprintf("%s%s:code:%s", urnPrefix, classificationID, code)
}

// ParseURN splits urn:ssb:klass-api:classifications:{id}:code:{code}.
func ParseURN(urn string) (classificationID, code string, err error) {
	parts := strings.Split(strings.TrimSpace(urn), ":")
	for i := 0; i+1 < len(parts); i++ {
		switch parts[i] {
		case "classifications":
			if classificationID == "" {
				classificationID = parts[i+1]
			}
		case "code":
			code = strings.Join(parts[i+1:], ":")
			i = len(parts)
		}
	}
	if classificationID == "" || code == "" {
		return "", "", apierr.Validationf("%q is not a classification code urn", urn)
	}
	return classificationID, code, nil
}

// URNResolver turns code identifiers into catalog-backed Code records.
type URNResolver struct {
	log         *logger.Logger
	catalog     klass.Client
	concurrency int
}

func NewURNResolver(log *logger.Logger, catalog klass.Client, concurrency int) *URNResolver {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &URNResolver{
		log:         log.With("service", "URNResolver"),
		catalog:     catalog,
		concurrency: concurrency,
	}
}

type urnGroup struct {
	classificationID string
	codes            []string
}

func groupURNs(urns []string) ([]urnGroup, error) {
	idx := map[string]int{}
	var groups []urnGroup
	for _, urn := range urns {
		cid, code, err := ParseURN(urn)
		if err != nil {
			return nil, err
		}
		i, ok := idx[cid]
		if !ok {
			i = len(groups)
			idx[cid] = i
			groups = append(groups, urnGroup{classificationID: cid})
		}
		groups[i].codes = append(groups[i].codes, code)
	}
	return groups, nil
}

// Resolve looks the identifiers up with one catalog call per classification.
// Codes unknown to the catalog are absent from the result.
func (r *URNResolver) Resolve(ctx context.Context, urns []string, from types.Date, to *types.Date) ([]types.Code, error) {
	groups, err := groupURNs(urns)
	if err != nil {
		return nil, err
	}
	results := make([][]types.Code, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			recs, err := r.catalog.Codes(gctx, grp.classificationID, from, to, grp.codes)
			if err != nil {
				return err
			}
			out := make([]types.Code, 0, len(recs))
			for _, rec := range recs {
				out = append(out, r.toCode(grp.classificationID, rec))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.Code
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}

func (r *URNResolver) toCode(classificationID string, rec klass.CodeRecord) types.Code {
	return types.Code{
		URN:                       GenerateURN(classificationID, rec.Code),
		ClassificationID:          classificationID,
		Code:                      rec.Code,
		Name:                      rec.Name,
		Level:                     rec.Level,
		ValidFromInRequestedRange: rec.ValidFromInRequestedRange,
		ValidToInRequestedRange:   rec.ValidToInRequestedRange,
		Versions:                  []string{},
		Links:                     types.SelfLink(r.catalog.CodeHref(classificationID, rec.Code)),
	}
}

// statisticalUnits fetches every classification and unions their units. Any failed lookup
// fails the whole call so partial unit sets are never stored.
func (r *URNResolver) statisticalUnits(ctx context.Context, classificationIDs []string) ([]string, map[string]*klass.Classification, error) {
	classifications, err := r.classifications(ctx, classificationIDs)
	if err != nil {
		return nil, nil, err
	}
	return unitsOf(classifications), classifications, nil
}

func unitsOf(classifications map[string]*klass.Classification) []string {
	sets := make([][]string, 0, len(classifications))
	for _, c := range classifications {
		sets = append(sets, c.StatisticalUnits)
	}
	return types.UnionUnits(sets...)
}

func (r *URNResolver) classifications(ctx context.Context, ids []string) (map[string]*klass.Classification, error) {
	var mu sync.Mutex
	out := make(map[string]*klass.Classification, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			cls, err := r.catalog.Classification(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = cls
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EnrichCodes resolves every code of v against the catalog over v's validity period and
// recomputes v.StatisticalUnits. Unknown codes fail an OPEN version and stay bare on a DRAFT.
func (r *URNResolver) EnrichCodes(ctx context.Context, v *types.Version) error {
	if len(v.Codes) == 0 {
		v.StatisticalUnits = []string{}
		return nil
	}
	urns := make([]string, 0, len(v.Codes))
	for i := range v.Codes {
		c := &v.Codes[i]
		if c.ClassificationID == "" && c.URN != "" {
			cid, code, err := ParseURN(c.URN)
			if err != nil {
				return err
			}
			c.ClassificationID, c.Code = cid, code
		}
		urns = append(urns, GenerateURN(c.ClassificationID, c.Code))
	}

	var (
		resolved        []types.Code
		units           []string
		classifications map[string]*klass.Classification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resolved, err = r.Resolve(gctx, urns, v.ValidFrom, v.ValidUntil)
		return err
	})
	g.Go(func() error {
		var err error
		units, classifications, err = r.statisticalUnits(gctx, v.ClassificationIDs())
		return err
	})
	if err := g.Wait(); err != nil {
		r.log.Warn("code enrichment failed", "series_id", v.SeriesID, "version_id", v.VersionID, "error", err)
		return err
	}

	byKey := make(map[string]types.Code, len(resolved))
	for _, c := range resolved {
		byKey[c.Key()] = c
	}
	var missing []string
	for i := range v.Codes {
		c := &v.Codes[i]
		rec, ok := byKey[c.Key()]
		if !ok {
			missing = append(missing, fmt.Sprintf("code %s was not found in classification %s between %s and %s", c.Code, c.ClassificationID, v.ValidFrom, openEnd(v.ValidUntil)))
			c.URN = GenerateURN(c.ClassificationID, c.Code)
			if c.Versions == nil {
				c.Versions = []string{}
			}
			continue
		}
		mergeCatalogCode(c, rec)
		if cls := classifications[c.ClassificationID]; cls != nil {
			from := v.ValidFrom
			if rec.ValidFromInRequestedRange != nil {
				from = *rec.ValidFromInRequestedRange
			}
			to := v.ValidUntil
			if rec.ValidToInRequestedRange != nil {
				end := rec.ValidToInRequestedRange.AddDays(-1)
				to = &end
			}
			c.Versions = cls.VersionsIntersecting(from, to)
		}
	}
	if len(missing) > 0 && v.IsOpen() {
		return apierr.Validation(missing...)
	}
	v.StatisticalUnits = units
	return nil
}

func mergeCatalogCode(c *types.Code, rec types.Code) {
	if c.Name == "" {
		c.Name = rec.Name
	}
	if c.Level == "" {
		c.Level = rec.Level
	}
	c.URN = rec.URN
	c.Links = rec.Links
	c.ValidFromInRequestedRange = rec.ValidFromInRequestedRange
	c.ValidToInRequestedRange = rec.ValidToInRequestedRange
}

func openEnd(d *types.Date) string {
	if d == nil {
		return "(open ended)"
	}
	return d.String()
}
