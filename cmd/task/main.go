package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/db"
	"influencer-connect/pkg/gen"
	"influencer-connect/pkg/hashistack/secretmanager"
	"influencer-connect/pkg/logger"
	"influencer-connect/pkg/resend"
	"influencer-connect/pkg/task"
	"influencer-connect/services/performance"
	"influencer-connect/services/waitlist"
)

// The worker runs the asynq handlers plus the scheduler that fans out
// periodic view syncs for active CPV campaigns.
func main() {
	_ = godotenv.Load()

	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		resend.Module,

		task.Client,
		task.Server,

		performance.Worker,
		waitlist.Worker,

		fx.Invoke(db.Otel),
		fxLogger,
	}

	if os.Getenv("VAULT_ADDR") != "" {
		opts = append([]fx.Option{secretmanager.Module}, opts...)
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
