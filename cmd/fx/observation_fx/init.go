package observation_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodinsight/internal/config"
	"foodinsight/internal/repositories"
	"foodinsight/internal/services"
	"foodinsight/internal/storage"
)

var Module = fx.Provide(
	provideObservationRepo,
	provideStorage,
	provideObservationService)

func provideObservationRepo(db *gorm.DB) repositories.ObservationRepository {
	return repositories.NewObservationRepository(db)
}

func provideStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.MaxBytes)
}

func provideObservationService(
	cfg *config.Config,
	observationRepo repositories.ObservationRepository,
	store storage.Storage,
	analyzer services.Analyzer,
	logger *zap.Logger,
) services.IObservationService {
	return services.NewObservationService(observationRepo, store, analyzer, cfg.Upload.MaxBytes, logger)
}
