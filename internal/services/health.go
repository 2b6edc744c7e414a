package services

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/subsets-backend/internal/data/docstore"
	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/klass"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

type ReadyReport struct {
	Ready   bool `json:"ready"`
	Catalog bool `json:"klass"`
	Store   bool `json:"store"`
	Schema  bool `json:"schema"`
}

type HealthService interface {
	Ready(ctx context.Context) ReadyReport
}

type healthService struct {
	log     *logger.Logger
	store   docstore.Store
	catalog klass.Client
}

func NewHealthService(log *logger.Logger, store docstore.Store, catalog klass.Client) HealthService {
	return &healthService{
		log:     log.With("service", "HealthService"),
		store:   store,
		catalog: catalog,
	}
}

func (hs *healthService) Ready(ctx context.Context) ReadyReport {
	var rep ReadyReport
	var g errgroup.Group
	g.Go(func() error {
		rep.Catalog = hs.catalog.Ping(ctx)
		return nil
	})
	g.Go(func() error {
		if err := hs.store.Ping(ctx); err != nil {
			hs.log.Warn("store not ready", "error", err)
			return nil
		}
		rep.Store = true
		return nil
	})
	g.Go(func() error {
		raw, err := hs.store.Schema(ctx, types.SeriesCollection)
		rep.Schema = err == nil && json.Valid(raw)
		return nil
	})
	_ = g.Wait()
	rep.Ready = rep.Catalog && rep.Store && rep.Schema
	return rep
}
