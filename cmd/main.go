package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/trajectory/internal/adapters/repository"
	service "github.com/okian/trajectory/internal/app"
	"github.com/okian/trajectory/internal/config"
	"github.com/okian/trajectory/internal/domain/analytics"
	"github.com/okian/trajectory/internal/domain/level"
	"github.com/okian/trajectory/internal/domain/normalize"
	"github.com/okian/trajectory/internal/domain/payload"
	"github.com/okian/trajectory/pkg/logger"
	"github.com/okian/trajectory/pkg/metrics"
)

func main() {
	// Initialize logging
	if err := logger.InitWithWriter(os.Stderr, logger.FormatJSON); err != nil {
		// Use stderr directly since the logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		stop()
		os.Exit(1)
	}

	code := 0
	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "pipeline failed", logger.Error(err))
		code = 1
	}
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.InitWithWriter(os.Stderr, cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithDurationBuckets(cfg.PhaseDurationBuckets),
	)

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	classifier, err := level.Load(ctx, cfg.LevelRulesPath)
	if err != nil {
		return err
	}
	log.Info(ctx, "level rules loaded", logger.Int("version", classifier.Version()))

	store, err := repository.Open(ctx, cfg.DBPath,
		repository.WithBatchSize(cfg.BatchSize),
		repository.WithLogger(log.Named("repository")),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "store close failed", logger.Error(err))
		}
	}()

	svc := service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithInput(cfg.DataDir, cfg.FileGlob),
		service.WithOutputPath(cfg.OutputPath),
		service.WithMetricsTextfile(cfg.MetricsTextfile),
		service.WithMaxLineBytes(cfg.MaxLineBytes),
		service.WithExpectedPersons(cfg.ExpectedPersons),
		service.WithNormalizer(normalize.New(normalize.WithClassifier(classifier))),
		service.WithEngineOptions(engineOptions(cfg)...),
		service.WithShaper(payload.NewShaper(payload.WithBounds(bounds(cfg)))),
	)
	_, err = svc.Run(ctx)
	return err
}

func engineOptions(cfg *config.Config) []analytics.Option {
	return []analytics.Option{
		analytics.WithMinSampleSize(cfg.MinSampleSize),
		analytics.WithMajorTopRoles(cfg.MajorTopRoles),
		analytics.WithPathTopN(cfg.PathTopN),
		analytics.WithPathMinFrequency(cfg.PathMinFrequency),
		analytics.WithWorkers(cfg.MetricWorkers),
	}
}

func bounds(cfg *config.Config) payload.Bounds {
	return payload.Bounds{
		PromotionVelocity:   payload.Limits{Keys: cfg.VelocityKeys},
		RoleTransitions:     payload.Limits{Keys: cfg.RoleTransitionKeys, Targets: cfg.RoleTransitionTargets},
		MajorToFirstRole:    payload.Limits{Keys: cfg.MajorKeys, Targets: cfg.MajorTargets},
		IndustryTransitions: payload.Limits{Keys: cfg.IndustryTransitionKeys, Targets: cfg.IndustryTransitionTargets},
		PathsToRole:         payload.Limits{Keys: cfg.PathKeys, Targets: cfg.PathTargets},
	}
}
