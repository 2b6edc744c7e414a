package repos

import (
	"github.com/yungbote/subsets-backend/internal/data/docstore"
	"github.com/yungbote/subsets-backend/internal/data/repos/subsets"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/platform/schema"
)

type SeriesRepo = subsets.SeriesRepo
type VersionRepo = subsets.VersionRepo

func NewSeriesRepo(store docstore.Store, validator *schema.Validator, log *logger.Logger) SeriesRepo {
	return subsets.NewSeriesRepo(store, validator, log)
}

func NewVersionRepo(store docstore.Store, validator *schema.Validator, log *logger.Logger) VersionRepo {
	return subsets.NewVersionRepo(store, validator, log)
}
