//go:build wireinject
// +build wireinject

package di

import (
	"stockpulse/internal/usecase"
	"stockpulse/pkg/config"
	"stockpulse/pkg/server"

	"github.com/google/wire"
)

// InitializeProducer wires the one-shot quote producer.
func InitializeProducer(cfg *config.Config) (*usecase.QuoteProducer, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCalendar,
		ProvideOracle,
		ProvideAPIKey,
		ProvideQuoteSource,
		ProvideKafkaProducer,
		ProvideQuotePublisher,
		ProvideArchive,
		ProvideQuoteProducer,
	)
	return &usecase.QuoteProducer{}, nil
}

// InitializeController wires the one-shot session controller.
func InitializeController(cfg *config.Config) (*usecase.SessionController, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCalendar,
		ProvideOracle,
		ProvideSessionControl,
		ProvideSessionController,
	)
	return &usecase.SessionController{}, nil
}

// InitializeWorker wires the long-running session worker.
func InitializeWorker(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideAPIKey,
		ProvideKafkaProducer,
		ProvideTradeSink,
		ProvideSessionManager,
		ProvideSessionsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
