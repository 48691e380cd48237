package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/borjaoskins/raffle-backend/api/routes"
	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/handlers"
	"github.com/borjaoskins/raffle-backend/internal/jobs"
	"github.com/borjaoskins/raffle-backend/internal/repositories"
	mongorepo "github.com/borjaoskins/raffle-backend/internal/repositories/mongodb"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/borjaoskins/raffle-backend/pkg/mercadopago"
	"github.com/borjaoskins/raffle-backend/pkg/mongodb"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Error("error disconnecting from MongoDB")
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	var raffleRepo repositories.RaffleRepository = mongorepo.NewRaffleRepository(db)
	var saleRepo repositories.SaleRepository = mongorepo.NewSaleRepository(db)
	var allocRepo repositories.AllocationRepository = mongorepo.NewAllocationRepository(db)

	// The unique (raffle, number) index must exist before any sale is taken
	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = allocRepo.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("failed to ensure allocation indexes")
	}

	gateway := mercadopago.NewClient(
		cfg.MercadoPago.BaseURL,
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.NotificationURL,
	)

	authService := services.NewAuthService(cfg)
	raffleService := services.NewRaffleService(raffleRepo, saleRepo)
	saleService := services.NewSaleService(raffleRepo, saleRepo, allocRepo, cfg)
	paymentService := services.NewPaymentService(saleRepo, raffleRepo, gateway, cfg)
	webhookService := services.NewWebhookService(saleRepo, gateway, cfg)
	exportService := services.NewExportService(raffleRepo, saleRepo)

	deps := routes.HandlerDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		RaffleHandler:  handlers.NewRaffleHandler(raffleService),
		SaleHandler:    handlers.NewSaleHandler(saleService),
		PaymentHandler: handlers.NewPaymentHandler(paymentService),
		WebhookHandler: handlers.NewWebhookHandler(webhookService),
		ExportHandler:  handlers.NewExportHandler(exportService),
	}

	router := routes.SetupRouter(cfg, deps)

	scheduler := jobs.NewScheduler(saleService)
	if err := scheduler.Start(); err != nil {
		logrus.WithError(err).Fatal("failed to start job scheduler")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exited")
}
