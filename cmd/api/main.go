package main

import (
	"log"

	_ "payment_binder/docs"
	"payment_binder/internal/adapter/http/routes"
	"payment_binder/internal/config"
	"payment_binder/internal/infrastructure/logging"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

// @title           Payment Binder API
// @version         1.0
// @description     One call surface over Paddle, Razorpay, Stripe and Mercado Pago with idempotent dispatch and retries.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting payment-binder",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("payment_gateway_mock", cfg.Payments.Mock),
	)

	if err := routes.Run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
