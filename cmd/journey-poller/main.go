// Package main provides the journey due-work poller: a daemon that scans
// the execution store for suspended executions whose resume time has
// passed and runs them forward.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/journeyhq/journey/pkg/cmd"
	"github.com/journeyhq/journey/pkg/log"
	"github.com/journeyhq/journey/pkg/otelhelper"
	"github.com/journeyhq/journey/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "journey-poller",
		Usage:                 "Start the journey due-work poller",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "poller-id",
				Aliases: []string{"id"},
				Usage:   "Custom poller ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("POLLER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "redis-url",
				Usage:    "Redis connection URL for reply-recency tracking",
				Required: true,
				Sources:  cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:     "messenger-url",
				Usage:    "Base URL of the messaging-channel service",
				Required: true,
				Sources:  cli.EnvVars("MESSENGER_URL"),
			},
			&cli.StringFlag{
				Name:     "chat-url",
				Usage:    "Base URL of the chat service (generation, predicates, automation control)",
				Required: true,
				Sources:  cli.EnvVars("CHAT_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type for lifecycle events (kafka, gochannel; empty disables)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often to scan for due executions",
				Value:   workflow.DefaultPollInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	pollerID := command.String("poller-id")
	if pollerID == "" {
		pollerID = "poller-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("journey-poller").With("poller_id", pollerID)

	logger.InfoContext(ctx, "Initializing Journey poller")

	tracerProvider, err := otelhelper.InitTracer(ctx, "journey-poller")
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}

	defer func() {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown tracer provider", "error", err)
		}
	}()

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if eventBus == nil {
			return
		}

		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	collaborators, err := cmd.NewCollaborators(
		logger,
		command.String("messenger-url"),
		command.String("chat-url"),
		command.String("redis-url"),
	)
	if err != nil {
		return err
	}

	executor := workflow.NewNodeExecutor(collaborators, logger)
	runner := workflow.NewRunner(persistence, executor, eventBus, tracerProvider.Tracer("journey-poller"), logger)
	poller := workflow.NewPoller(persistence, runner, command.Duration("poll-interval"), logger)

	pollerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	err = poller.Start(pollerCtx)
	if err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.Info("Received signal, shutting down gracefully", "signal", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()

	return poller.Stop(shutdownCtx)
}
