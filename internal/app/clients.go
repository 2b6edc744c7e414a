package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/subsets-backend/internal/data/db"
	"github.com/yungbote/subsets-backend/internal/data/docstore"
	"github.com/yungbote/subsets-backend/internal/observability"
	"github.com/yungbote/subsets-backend/internal/platform/klass"
	"github.com/yungbote/subsets-backend/internal/platform/lds"
	"github.com/yungbote/subsets-backend/internal/platform/locker"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type Clients struct {
	Store     docstore.Store
	Catalog   klass.Client
	Locks     locker.Locker
	Validator *schema.Validator

	db    *gorm.DB
	redis *locker.Redis
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	obs := metrics.ObserveUpstream

	// Document store
	switch cfg.StoreBackend {
	case StoreLDS:
		c, err := lds.New(log, cfg.LDS, obs)
		if err != nil {
			return Clients{}, fmt.Errorf("init lds client: %w", err)
		}
		out.Store = docstore.NewLDSStore(c)
	case StorePostgres, StoreSQLite:
		var (
			gdb *gorm.DB
			err error
		)
		if cfg.StoreBackend == StorePostgres {
			gdb, err = db.OpenPostgres(log, cfg.Postgres)
		} else {
			gdb, err = db.OpenSQLite(log, cfg.SQLitePath)
		}
		if err != nil {
			return Clients{}, fmt.Errorf("init %s: %w", cfg.StoreBackend, err)
		}
		if err := db.AutoMigrateAll(gdb); err != nil {
			closeDB(gdb)
			return Clients{}, fmt.Errorf("%s automigrate: %w", cfg.StoreBackend, err)
		}
		out.db = gdb
		out.Store = docstore.NewGormStore(gdb)
	default:
		out.Store = docstore.NewMemoryStore()
	}

	// Catalog
	catalog, err := klass.New(log, cfg.Klass, obs)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init klass client: %w", err)
	}
	out.Catalog = catalog

	// Locks
	if cfg.Redis.Addr != "" {
		r, err := locker.NewRedis(log, cfg.Redis)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
		out.redis = r
		out.Locks = r
	} else {
		log.Warn("REDIS_ADDR not set, series locks are local to this process")
		out.Locks = locker.NewLocal()
	}

	out.Validator = schema.NewValidator()
	return out, nil
}

func closeDB(gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	closeDB(c.db)
}
