//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	drepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/pkg/config"
	"QuantSuperior/pkg/metrics"
	"QuantSuperior/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		wire.Bind(new(drepo.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideLogDigest,

		// Repositories and services
		ProvideBarStore,
		ProvideBarProvider,
		ProvideSignalPublisher,
		ProvideQueue,
		ProvideNotifier,

		// Use cases
		ProvideEngineConfig,
		ProvideRunner,
		ProvideDispatcher,
		ProvideScheduler,
		ProvideAlertHandler,
		ProvideKafkaConsumer,

		// Transport
		ProvideLimiter,
		ProvideHub,
		ProvideAPIHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
