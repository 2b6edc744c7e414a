package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	"github.com/yungbote/subsets-backend/internal/data/repos"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/klass"
	"github.com/yungbote/subsets-backend/internal/platform/locker"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type fakeCatalog struct {
	mu              sync.Mutex
	codes           map[string][]klass.CodeRecord
	classifications map[string]*klass.Classification
	failing         map[string]bool
	codeCalls       []string
	clsCalls        int
}

func newFakeCatalog() *fakeCatalog {
	versions := []klass.ClassificationVersion{
		catalogVersion("k/131/2020", "2020-01-01", "2024-01-01"),
		catalogVersion("k/131/2024", "2024-01-01", ""),
	}
	return &fakeCatalog{
		codes: map[string][]klass.CodeRecord{
			"131": {
				{Code: "0301", Name: "Oslo", Level: "1"},
				{Code: "1103", Name: "Stavanger", Level: "1"},
			},
			"7": {
				{Code: "01", Name: "Jordbruk", Level: "1"},
			},
		},
		classifications: map[string]*klass.Classification{
			"131": {Name: "Kommuner", StatisticalUnits: []string{"Kommune"}, Versions: versions},
			"7":   {Name: "Næring", StatisticalUnits: []string{"Foretak", "Virksomhet"}},
		},
		failing: map[string]bool{},
	}
}

func catalogVersion(href, from, to string) klass.ClassificationVersion {
	v := klass.ClassificationVersion{Name: href, ValidFrom: types.MustDate(from)}
	if to != "" {
		v.ValidTo = types.DatePtr(to)
	}
	v.Links.Self.Href = href
	return v
}

func (f *fakeCatalog) Codes(_ context.Context, cid string, _ types.Date, _ *types.Date, selectCodes []string) ([]klass.CodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeCalls = append(f.codeCalls, cid+":"+strings.Join(selectCodes, ","))
	if f.failing[cid] {
		return nil, apierr.Upstream("GET codes "+cid, 503, []byte("catalog down"))
	}
	want := map[string]bool{}
	for _, c := range selectCodes {
		want[c] = true
	}
	var out []klass.CodeRecord
	for _, rec := range f.codes[cid] {
		if want[rec.Code] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Classification(_ context.Context, cid string) (*klass.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clsCalls++
	if f.failing[cid] {
		return nil, apierr.Upstream("GET classification "+cid, 503, []byte("catalog down"))
	}
	c, ok := f.classifications[cid]
	if !ok {
		return nil, apierr.Upstream("GET classification "+cid, 404, []byte("not found"))
	}
	return c, nil
}

func (f *fakeCatalog) Ping(context.Context) bool { return true }

func (f *fakeCatalog) CodeHref(cid, code string) string {
	return fmt.Sprintf("https://klass.test/%s/codes?selectCodes=%s", cid, code)
}

type fixture struct {
	store    *docstore.MemoryStore
	catalog  *fakeCatalog
	series   SeriesService
	versions VersionService
	resolver *URNResolver
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, nil)
}

// newFixtureOn builds the services over wrap(memory store) when wrap is set.
func newFixtureOn(t *testing.T, wrap func(*docstore.MemoryStore) docstore.Store) *fixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	mem := docstore.NewMemoryStore()
	var store docstore.Store = mem
	if wrap != nil {
		store = wrap(mem)
	}
	validator := schema.NewValidator()
	seriesRepo := repos.NewSeriesRepo(store, validator, log)
	versionRepo := repos.NewVersionRepo(store, validator, log)
	catalog := newFakeCatalog()
	resolver := NewURNResolver(log, catalog, 2)
	locks := locker.NewLocal()

	f := &fixture{
		store:    mem,
		catalog:  catalog,
		resolver: resolver,
		now:      time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	ss := NewSeriesService(log, seriesRepo, versionRepo, locks, 2).(*seriesService)
	ss.now = clock
	vs := NewVersionService(log, seriesRepo, versionRepo, resolver, locks, 2).(*versionService)
	vs.now = clock
	f.series = ss
	f.versions = vs
	return f
}

// failingPuts rejects every write of the listed documents with err.
type failingPuts struct {
	*docstore.MemoryStore
	mu   sync.Mutex
	ids  map[string]bool
	err  error
	hits int
}

func (s *failingPuts) failOn(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = true
	s.err = err
}

func (s *failingPuts) fail(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		s.hits++
		return s.err
	}
	return nil
}

func (s *failingPuts) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	if err := s.fail(id); err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, collection, id, doc)
}

func (s *failingPuts) PutIfRevision(ctx context.Context, collection, id string, doc json.RawMessage, expected int64) error {
	if err := s.fail(id); err != nil {
		return err
	}
	return s.MemoryStore.PutIfRevision(ctx, collection, id, doc, expected)
}

func (f *fixture) mustSeries(t *testing.T, id string) *types.Series {
	t.Helper()
	s, err := f.series.Create(context.Background(), &types.Series{ID: id})
	if err != nil {
		t.Fatalf("create series %s: %v", id, err)
	}
	return s
}

func draftInput(from, until string, codes ...types.Code) *types.Version {
	v := &types.Version{
		AdministrativeStatus: types.StatusDraft,
		ValidFrom:            types.MustDate(from),
		Codes:                codes,
	}
	if until != "" {
		v.ValidUntil = types.DatePtr(until)
	}
	return v
}

func openInput(from, until string, codes ...types.Code) *types.Version {
	v := draftInput(from, until, codes...)
	v.AdministrativeStatus = types.StatusOpen
	return v
}

func oslo() types.Code      { return types.Code{ClassificationID: "131", Code: "0301"} }
func stavanger() types.Code { return types.Code{ClassificationID: "131", Code: "1103"} }
func farming() types.Code   { return types.Code{ClassificationID: "7", Code: "01"} }
