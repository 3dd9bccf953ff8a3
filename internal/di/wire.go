//go:build wireinject
// +build wireinject

package di

import (
	"FinTrack/pkg/config"
	"FinTrack/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideClock,

		// Brokers and logging
		ProvideKafkaProducer,
		ProvideAMQPPublisher,
		ProvideLogger,

		// Repositories
		ProvideTransactionStore,
		ProvideCache,
		ProvideFeedHub,
		ProvideEventPublisher,

		// Use cases
		ProvideSummaryUseCase,
		ProvideTransactionsUseCase,
		ProvideIngestConsumer,

		// Transport
		ProvideRouter,
		ProvideHTTPServer,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
