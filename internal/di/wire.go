//go:build wireinject
// +build wireinject

package di

import (
	"ZPulse/pkg/config"
	"ZPulse/pkg/server"

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
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideResultStore,
		ProvideResultPublisher,
		ProvideQuoteStream,

		// Services
		ProvideBytesCache,
		ProvideFundamentalsProvider,
		ProvideQuoteBook,
		ProvideEngine,

		// Use cases
		ProvideTrendAnalyzer,
		ProvideResultProcessor,
		ProvideQuoteCollector,
		ProvideKafkaResultsHandler,
		ProvideAnalysisQueue,

		// HTTP
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
