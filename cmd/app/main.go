package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/chauffeur/api"
	"github.com/Domenick1991/chauffeur/config"
	"github.com/Domenick1991/chauffeur/internal/bootstrap"
	"github.com/Domenick1991/chauffeur/internal/cache"
	"github.com/Domenick1991/chauffeur/internal/invoice"
	"github.com/Domenick1991/chauffeur/internal/kafka"
	"github.com/Domenick1991/chauffeur/internal/maps"
	"github.com/Domenick1991/chauffeur/internal/payment"
	"github.com/Domenick1991/chauffeur/internal/pricing"
	"github.com/Domenick1991/chauffeur/internal/repository"
	"github.com/Domenick1991/chauffeur/internal/service/booking"
	"github.com/Domenick1991/chauffeur/internal/service/catalogue"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := bootstrap.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.DraftTTL(), cfg.Payment.OutcomeCacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("redis is not reachable")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.WithError(err).Warn("kafka is not reachable")
	}

	table := pricing.DefaultTable()
	if cfg.Pricing.FareTablePath != "" {
		table, err = pricing.LoadTable(cfg.Pricing.FareTablePath)
		if err != nil {
			logger.WithError(err).Fatal("load fare table")
		}
	}

	var drafts booking.DraftStore = booking.NewMemoryDraftStore()
	if cfg.Booking.DraftStore == "redis" {
		drafts = cache.NewRedisDraftStore(redisCache)
	}

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	gateway := payment.NewHTTPGateway(cfg.Payment)
	reconciler := payment.NewReconciler(gateway,
		payment.WithOutcomeCache(redisCache),
		payment.WithOutcomeStore(paymentRepo),
		payment.WithReconcilerLogger(logger),
	)
	go reconciler.RunPruner(ctx, cfg.Payment.OutcomeRetention()/2, cfg.Payment.OutcomeRetention())

	opts := []booking.BookingServiceOption{
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithCache(redisCache, cfg.Booking.SubmitLockTTL()),
		booking.WithPayments(payment.NewInitiator(gateway, logger), reconciler, paymentRepo),
		booking.WithLogger(logger),
		booking.WithMaxRetries(cfg.Booking.SubmitRetries()),
		booking.WithDraftTTL(cfg.Booking.DraftTTL()),
	}
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.Region, cfg.Maps.Language)
		if err != nil {
			logger.WithError(err).Fatal("create geocoder")
		}
		opts = append(opts, booking.WithResolver(geocoder))
	} else {
		logger.Warn("maps api key not set, places must arrive resolved")
	}

	engine := pricing.NewEngine(table)
	bookingService := booking.NewBookingService(
		bookingRepo,
		drafts,
		engine,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.ConfirmationTTL(),
		opts...,
	)

	go bookingService.RunSweeper(ctx, cfg.Booking.DraftTTL()/4)

	handler := api.NewBookingHandler(bookingService, invoice.NewRenderer(cfg.Email.CompanyName))
	router := api.NewRouter(cfg, handler, api.NewCatalogueHandler(catalogue.NewCatalogueService(engine)), logger)

	logger.WithFields(logrus.Fields{"env": cfg.Env, "draft_store": cfg.Booking.DraftStore}).Info("starting chauffeur api")
	if err := bootstrap.Run(ctx, cfg, router, logger); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
