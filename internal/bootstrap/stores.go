package bootstrap

import (
	"log/slog"

	"github.com/agenthub/registry/internal/analytics"
	"github.com/agenthub/registry/internal/apikey"
	"github.com/agenthub/registry/internal/registry"
	"github.com/agenthub/registry/internal/user"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserStore(db *gorm.DB) *user.Store {
	return user.NewStore(db)
}

func ProvideRegistryStore(db *gorm.DB, qdrantClient *qdrant.Client) *registry.Store {
	return registry.NewStore(db, qdrantClient)
}

func ProvideAPIKeyStore(db *gorm.DB) *apikey.Store {
	return apikey.NewStore(db)
}

func ProvideAnalyticsStore(db *gorm.DB, logger *slog.Logger) *analytics.Store {
	return analytics.NewStore(db, logger.With("component", "analytics"))
}

func RunMigrations(userStore *user.Store, registryStore *registry.Store, apiKeyStore *apikey.Store, analyticsStore *analytics.Store) error {
	if err := userStore.Migrate(); err != nil {
		return err
	}
	if err := registryStore.Migrate(); err != nil {
		return err
	}
	if err := apiKeyStore.Migrate(); err != nil {
		return err
	}
	return analyticsStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideUserStore,
		ProvideRegistryStore,
		ProvideAPIKeyStore,
		ProvideAnalyticsStore,
	),
	fx.Invoke(RunMigrations),
)
