package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/census/internal/census/auth"
	"github.com/gartstein/census/internal/census/clock"
	"github.com/gartstein/census/internal/census/config"
	"github.com/gartstein/census/internal/census/controller"
	"github.com/gartstein/census/internal/census/db"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/handlers"
	"github.com/gartstein/census/internal/census/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := cfg.Logger()
	if err != nil {
		zap.L().Fatal("failed to build logger", zap.Error(err))
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	repo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer, err := events.NewProducer(cfg.Kafka.Brokers, logger, cfg.Kafka.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	calc := eligibility.NewCalculator(newClock(cfg, logger), cfg.Settings())
	censusSvc := controller.NewCensusService(repo, producer, calc, m, logger)

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.InboundTopic, logger)
	defer consumer.Close()
	consumer.RegisterHandler(censusSvc.HandleInboundEvent)

	censusHandler := handlers.NewCensusHandler(censusSvc, logger)

	authInterceptor := auth.NewAuthInterceptor(cfg.Auth.JWTSecret)
	server := handlers.NewServer(cfg.Server.GRPCPort, cfg.Server.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
	server.RegisterGRPCHandler(censusHandler)
	if err := server.RegisterHTTPGateway(censusHandler, reg, cfg.Auth.JWTSecret); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error { return consumer.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		server.Stop()
		logger.Info("Servers stopped properly")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Service exited with error", zap.Error(err))
	}
}

// openRepository connects to postgres, retrying while the database starts.
func openRepository(cfg *config.Config, logger *zap.Logger) (*db.Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	var repo *db.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(cfg.DB())
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Database not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	return repo, err
}

// newClock pins the business date when the configuration sets one.
func newClock(cfg *config.Config, logger *zap.Logger) clock.Clock {
	c := clock.NewAdjustable(clock.System{})
	if cfg.BusinessDate != "" {
		d, _ := time.Parse(time.DateOnly, cfg.BusinessDate)
		c.Set(d)
		logger.Info("Business date pinned", zap.String("business_date", cfg.BusinessDate))
	}
	return c
}
