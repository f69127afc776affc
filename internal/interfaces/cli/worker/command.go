// Package worker wires and runs the usage settlement worker.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	nodeusecases "veilgate/internal/application/node/usecases"
	"veilgate/internal/application/usage/services"
	"veilgate/internal/application/usage/usecases"
	"veilgate/internal/infrastructure/cache"
	"veilgate/internal/infrastructure/config"
	"veilgate/internal/infrastructure/database"
	"veilgate/internal/infrastructure/nodes"
	"veilgate/internal/infrastructure/repository"
	"veilgate/internal/infrastructure/scheduler"
	"veilgate/internal/shared/constants"
	"veilgate/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the usage settlement worker",
		Long:  `Start the worker that periodically collects traffic counters from the node fleet and settles usage totals into the database.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting usage settlement worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Errorw("failed to initialize database", "error", err)
		return err
	}
	defer database.Close()

	if autoMigrate {
		if err := database.AutoMigrate(); err != nil {
			log.Errorw("failed to run auto migration", "error", err)
			return err
		}
		log.Infow("database schema migrated")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Online markers are optional: a dead redis downgrades them, it does
	// not block settlement.
	var online usecases.OnlineMarker
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warnw("redis unavailable, online markers disabled", "error", err)
	} else {
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
		online = cache.NewOnlineStatusCache(redisClient, log)
	}
	pingCancel()

	nodeRepo := repository.NewNodeRepository(database.Get(), log)
	userRepo := repository.NewUserRepository(database.Get(), log)
	executor := repository.NewExecutor(database.Get(), log)
	builder := repository.NewUpsertBuilder(database.Dialect())
	settlement := repository.NewUsageSettlementRepository(executor, builder, log)

	nodeManager := nodes.NewManager(nodeRepo, log.Named("nodes"))
	collector := services.NewStatsCollector(log.Named("collector"))

	recordUserUsages := usecases.NewRecordUserUsagesUseCase(
		nodeManager,
		collector,
		userRepo,
		settlement,
		online,
		cfg.Usage.DisableRecordingNodeUsage,
		log,
	)
	recordNodeUsages := usecases.NewRecordNodeUsagesUseCase(
		nodeManager,
		collector,
		settlement,
		cfg.Usage.DisableRecordingNodeUsage,
		log,
	)
	checkNodeHealth := nodeusecases.NewCheckNodeHealthUseCase(
		nodeManager,
		nodeRepo,
		time.Duration(cfg.Node.APITimeout)*time.Second,
		log,
	)

	schedulerManager, err := scheduler.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterUsageRecordingJobs(
		recordUserUsages,
		recordNodeUsages,
		time.Duration(cfg.Usage.RecordUserUsagesInterval)*time.Second,
		time.Duration(cfg.Usage.RecordNodeUsagesInterval)*time.Second,
	); err != nil {
		return fmt.Errorf("failed to register usage jobs: %w", err)
	}
	if err := schedulerManager.RegisterNodeHealthJob(
		checkNodeHealth,
		time.Duration(cfg.Node.HealthCheckInterval)*time.Second,
	); err != nil {
		return fmt.Errorf("failed to register node health job: %w", err)
	}

	schedulerManager.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	if err := schedulerManager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
	}

	log.Infow("usage settlement worker stopped")
	return nil
}
