package app

import (
	"github.com/yungbote/subsets-backend/internal/data/repos"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/services"
)

type Repos struct {
	Series  repos.SeriesRepo
	Version repos.VersionRepo
}

func wireRepos(log *logger.Logger, clients Clients) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Series:  repos.NewSeriesRepo(clients.Store, clients.Validator, log),
		Version: repos.NewVersionRepo(clients.Store, clients.Validator, log),
	}
}

type Services struct {
	Resolver *services.URNResolver
	Series   services.SeriesService
	Version  services.VersionService
	Health   services.HealthService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")
	resolver := services.NewURNResolver(log, clients.Catalog, cfg.Concurrency)
	return Services{
		Resolver: resolver,
		Series:   services.NewSeriesService(log, reposet.Series, reposet.Version, clients.Locks, cfg.Concurrency),
		Version:  services.NewVersionService(log, reposet.Series, reposet.Version, resolver, clients.Locks, cfg.Concurrency),
		Health:   services.NewHealthService(log, clients.Store, clients.Catalog),
	}
}
