package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"influencer-connect/pkg/aigateway"
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/db"
	"influencer-connect/pkg/gen"
	"influencer-connect/pkg/hashistack/secretmanager"
	"influencer-connect/pkg/health"
	"influencer-connect/pkg/httpapi"
	"influencer-connect/pkg/logger"
	"influencer-connect/pkg/profiling"
	"influencer-connect/pkg/redis"
	"influencer-connect/pkg/resend"
	"influencer-connect/pkg/sequence"
	"influencer-connect/pkg/server"
	"influencer-connect/pkg/stripe"
	"influencer-connect/pkg/task"
	"influencer-connect/services/campaign"
	"influencer-connect/services/creator"
	"influencer-connect/services/discovery"
	"influencer-connect/services/escrow"
	"influencer-connect/services/payout"
	"influencer-connect/services/performance"
	"influencer-connect/services/tracking"
	"influencer-connect/services/waitlist"
)

func main() {
	_ = godotenv.Load()

	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		gen.Module,
		task.Client,

		stripe.Module,
		aigateway.Module,
		resend.Module,

		httpapi.Module,
		health.Module,

		creator.Module,
		campaign.Module,
		performance.Module,
		payout.Module,
		escrow.Module,
		tracking.Module,
		discovery.Module,
		waitlist.Module,

		fx.Provide(
			provideTracerProvider,
			provideMeterProvider,
		),
		fx.Invoke(
			db.Otel,
			db.Metric,
			autoMigrate,
		),

		server.ProvideHTTPServer,
		fxLogger,
	}

	if os.Getenv("VAULT_ADDR") != "" {
		opts = append([]fx.Option{secretmanager.Module}, opts...)
	}
	if os.Getenv("PYROSCOPE_ADDR") != "" {
		opts = append(opts, profiling.Module)
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideMeterProvider() metric.MeterProvider {
	return otel.GetMeterProvider()
}

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&campaign.Campaign{},
		&campaign.Reward{},
		&campaign.Participant{},
		&campaign.AILog{},
		&creator.Creator{},
		&creator.Wallet{},
		&performance.ContentPerformance{},
		&performance.EarningsHistory{},
		&payout.Request{},
		&escrow.Transaction{},
		&tracking.Code{},
		&tracking.Event{},
		&tracking.SalesEvent{},
		&waitlist.Entry{},
	)
}
