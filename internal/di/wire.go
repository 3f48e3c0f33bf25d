//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/tooffoundation/site-backend/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		SecuritySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

// InitializeMigrationRunner opens the database without migrating it so the
// runner owns the schema step.
func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		provideOpenDB,
		NewMigrationRunner,
	))
}

func InitializeDependencyCheck() (*DependencyCheck, error) {
	panic(wire.Build(
		ConfigSet,
		provideBootstrapLogger,
		provideOpenDB,
		provideRedisClient,
		provideImageStorage,
		NewDependencyCheck,
	))
}
