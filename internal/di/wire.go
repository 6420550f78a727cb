//go:build wireinject
// +build wireinject

package di

import (
	"ChartFlux/pkg/config"
	"ChartFlux/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideDrawingStore,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and core services
		ProvideCandleStore,
		ProvideSeriesCache,
		ProvideReplayEngine,
		ProvideReplayDriver,

		// Use cases
		ProvideMarketDataUseCase,
		ProvideKafkaHandlers,

		// HTTP surface
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
