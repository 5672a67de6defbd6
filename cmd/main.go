package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"

	"rendezvous/contract"
	rerrors "rendezvous/errors"
	"rendezvous/infrastructure/api"
	"rendezvous/infrastructure/health"
	"rendezvous/infrastructure/metrics"
	"rendezvous/infrastructure/push"
	"rendezvous/moderation"
	"rendezvous/repositories"
	"rendezvous/repositories/postgres"
	"rendezvous/runtime"
	"rendezvous/runtime/workers"
	"rendezvous/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal or a server failure.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	activities, notes, closeStore, err := reminderStores(ctx, config, db)
	if err != nil {
		return err
	}
	defer closeStore()

	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)
	notifications := repositories.NewNotificationRepository(db, log)
	users := repositories.NewUserRepository(db)

	// 3. Moderation
	dictionary, err := moderation.DefaultDictionary()
	if err != nil {
		return fmt.Errorf("moderation dictionary: %w", err)
	}
	moderator, err := moderation.NewModerator(dictionary.Words, config.ModerationCharReplacement, log)
	if err != nil {
		return fmt.Errorf("moderation automaton: %w", err)
	}
	gate := moderation.NewGate(moderator, config.ModerationMaxLength, log)
	log.Info("Moderation ready", "languages", dictionary.Languages, "words", len(dictionary.Words))

	// 4. Delivery core
	registry := runtime.NewRegistry(log, config.SendTimeout)
	chat := runtime.NewChatBroadcaster(log, messages, gate, config.EditWindow, config.SendTimeout)
	notifier := services.NewNotificationService(log, registry, notifications, users, pushProvider(config, log))

	reminders := workers.NewReminderWorker(log, activities, notes, notifier,
		config.ReminderInterval, config.ReminderLookahead)
	heartbeat := workers.NewHeartbeatWorker(log, config.HeartbeatInterval, registry, chat, reminders)
	if err := metrics.RegisterLiveGauges(prometheus.DefaultRegisterer, registry, chat, reminders); err != nil {
		return fmt.Errorf("registering gauges: %w", err)
	}

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(reminders, heartbeat)
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	// 5. Servers
	healthServer := health.NewServer(log)
	healthListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.Host, config.HealthPort))
	if err != nil {
		return fmt.Errorf("failed to listen on health port: %w", err)
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: api.NewServer(log, registry, chat, notifier, notifications, users, config.SendTimeout).Router(),
		// WebSocket handlers end with the process context, hijacked connections are not tracked by Shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 2)
	go func() {
		if err := healthServer.Serve(healthListener); err != nil {
			errChan <- err
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	healthServer.SetServing(true)

	// 6. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server failed, shutting down", "error", runErr)
	}

	// 7. Final Cleanup
	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	stop()
	sup.Stop()
	<-supervised
	healthServer.Stop()
	log.Info("Program stopped cleanly")
	return runErr
}

// reminderStores picks where activities and notes are read from.
func reminderStores(ctx context.Context, config Config, db *badger.DB) (contract.ActivityStore, contract.NoteStore, func(), error) {
	switch config.StorageDriver {
	case "badger":
		return repositories.NewActivityRepository(db), repositories.NewNoteRepository(db), func() {}, nil
	case "postgres":
		pg, err := postgres.Open(ctx, config.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, pg); err != nil {
			_ = pg.Close()
			return nil, nil, nil, err
		}
		closeFn := func() { _ = pg.Close() }
		return postgres.NewActivityRepository(pg), postgres.NewNoteRepository(pg), closeFn, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %q", rerrors.ErrUnknownDriver, config.StorageDriver)
	}
}

func pushProvider(config Config, log *slog.Logger) contract.PushProvider {
	if config.PushEndpoint == "" {
		log.Info("No push endpoint configured, mobile push disabled")
		return push.NewNoop(log)
	}
	return push.NewClient(config.PushEndpoint, config.PushServerKey, config.PushTimeout)
}
