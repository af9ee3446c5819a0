// Command sweep runs the daily roster job that completes scheduled
// terminations once they come due. The rebase of newly designated employees
// belongs to the start of a plan year and only runs when asked for. A Redis
// lease keeps concurrent runs from overlapping.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/census/internal/census/clock"
	"github.com/gartstein/census/internal/census/config"
	"github.com/gartstein/census/internal/census/controller"
	"github.com/gartstein/census/internal/census/db"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/lock"
	"github.com/gartstein/census/internal/census/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

func main() {
	asOfFlag := flag.String("as-of", "", "business date to sweep (YYYY-MM-DD), defaults to today")
	pushURL := flag.String("pushgateway", "", "Prometheus pushgateway URL for run metrics")
	rebase := flag.Bool("rebase-newly-designated", false, "also end the newly designated period for every employer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}
	logger, err := cfg.Logger()
	if err != nil {
		zap.L().Fatal("failed to build logger", zap.Error(err))
	}
	logger = logger.Named("sweep")
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c clock.Clock = clock.System{}
	switch {
	case *asOfFlag != "":
		d, err := time.Parse(time.DateOnly, *asOfFlag)
		if err != nil {
			logger.Fatal("invalid -as-of date", zap.Error(err))
		}
		c = clock.Fixed(d)
	case cfg.BusinessDate != "":
		d, _ := time.Parse(time.DateOnly, cfg.BusinessDate)
		c = clock.Fixed(d)
	}
	asOf := c.Today()

	redisClient, err := lock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	lease, err := lock.NewLocker(redisClient, cfg.Redis.LockTTL).Acquire(ctx, "sweep:"+asOf.Format(time.DateOnly))
	if errors.Is(err, lock.ErrNotAcquired) {
		logger.Info("Sweep already running for business date", zap.Time("as_of", asOf))
		return
	}
	if err != nil {
		logger.Fatal("failed to acquire sweep lock", zap.Error(err))
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			logger.Error("failed to release sweep lock", zap.Error(err))
		}
	}()

	repo, err := db.NewRepository(cfg.DB())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.Kafka.Brokers, logger, cfg.Kafka.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	reg := prometheus.NewRegistry()
	svc := controller.NewCensusService(repo, producer, eligibility.NewCalculator(c, cfg.Settings()), metrics.New(reg), logger)

	runJobs(ctx, svc, asOf, *rebase, logger)

	if *pushURL != "" {
		if err := push.New(*pushURL, "census_sweep").Gatherer(reg).PushContext(ctx); err != nil {
			logger.Error("failed to push sweep metrics", zap.Error(err))
		}
	}
}

// jobs is the part of the census service the sweep drives.
type jobs interface {
	TerminateFutureScheduledCensusEmployees(ctx context.Context, asOf time.Time) (*controller.BatchResult, error)
	RebaseNewlyDesignated(ctx context.Context, employerProfileID *uuid.UUID) (*controller.BatchResult, error)
}

func runJobs(ctx context.Context, svc jobs, asOf time.Time, rebase bool, logger *zap.Logger) {
	terminated, err := svc.TerminateFutureScheduledCensusEmployees(ctx, asOf)
	if err != nil {
		logger.Error("Termination sweep failed", zap.Error(err))
	} else {
		report(logger, "terminations", terminated)
	}

	if !rebase {
		return
	}
	rebased, err := svc.RebaseNewlyDesignated(ctx, nil)
	if err != nil {
		logger.Error("Newly designated rebase failed", zap.Error(err))
		return
	}
	report(logger, "newly_designated", rebased)
}

func report(logger *zap.Logger, job string, result *controller.BatchResult) {
	for _, f := range result.Failures {
		logger.Warn("Record not processed",
			zap.String("job", job),
			zap.String("census_employee_id", f.CensusEmployeeID.String()),
			zap.Error(f.Err),
		)
	}
	logger.Info("Job finished",
		zap.String("job", job),
		zap.Int("processed", len(result.Processed)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failures)),
	)
}
