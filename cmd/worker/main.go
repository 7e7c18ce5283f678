package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/Domenick1991/chauffeur/internal/bootstrap"
	"github.com/Domenick1991/chauffeur/internal/email"
	"github.com/Domenick1991/chauffeur/internal/invoice"
	"github.com/Domenick1991/chauffeur/internal/kafka"
	"github.com/Domenick1991/chauffeur/internal/pricing"
	"github.com/Domenick1991/chauffeur/internal/repository"
	"github.com/Domenick1991/chauffeur/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.WithError(err).Warn("kafka is not reachable")
	}

	bookingRepo := repository.NewBookingRepository(pool)
	// The worker only expires bookings, so drafts and payments stay unwired.
	bookingService := booking.NewBookingService(
		bookingRepo,
		booking.NewMemoryDraftStore(),
		pricing.NewEngine(nil),
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.ConfirmationTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLogger(logger),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	notifier := email.NewNotifier(
		bookingRepo,
		invoice.NewRenderer(cfg.Email.CompanyName),
		email.NewLogSender(cfg.Email.From, logger),
		logger,
	)

	go func() {
		err := consumer.ConsumeEvents(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			if err := notifier.Handle(ctx, event); err != nil {
				logger.WithError(err).WithField("booking_id", event.BookingID).Error("notification failed")
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("consumer stopped")
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	logger.Info("worker started")
	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpireUnpaidBookings(ctx)
			if err != nil {
				logger.WithError(err).Error("expire bookings")
				continue
			}
			if len(expired) > 0 {
				logger.WithField("count", len(expired)).Info("expired unpaid bookings")
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
