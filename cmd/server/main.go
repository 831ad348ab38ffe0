package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-charchat-auth"
	"github.com/goliatone/go-charchat-auth/activitymap"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
	activityChannel = "charchat"
	// actor recorded for events raised before anyone authenticated
	unauthenticatedActor = "unauthenticated"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := auth.LoadOptions(nil)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.GetDebug() {
		level = slog.LevelDebug
	}
	logger := auth.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if cfg.GetDebug() {
		logger.Debug("configuration loaded", "options", cfg.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	db, err := auth.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := auth.Migrate(ctx, db, logger.Named("migrations")); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	sink := newActivitySink(func(_ context.Context, record activitymap.Normalized) error {
		logger.Info("activity",
			"verb", record.Verb,
			"channel", record.Channel,
			"actor_id", record.ActorID,
			"object_type", record.ObjectType,
			"object_id", record.ObjectID,
			"occurred_at", record.OccurredAt,
		)
		return nil
	})

	hasher := auth.NewPasswordHasher(cfg.HashCost, cfg.HashConcurrency)
	provider := auth.NewAccountProvider(repo.Accounts(), hasher).
		WithLogger(logger.Named("provider"))

	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(logger.Named("auther")).
		WithRevocations(repo.Revocations()).
		WithActivitySink(sink)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:      "charchat-auth",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				var fe *fiber.Error
				if errors.As(err, &fe) {
					return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
				}
				logger.Error("unhandled request error", "error", err, "path", c.Path())
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			},
		}))
	})

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerLogger(logger.Named("http")),
		auth.WithControllerConfig(cfg),
		auth.WithControllerDeps(repo, hasher, auther),
		func(c *auth.AuthController) *auth.AuthController {
			c.Debug = cfg.GetDebug()
			c.UseHashid = cfg.UseHashid
			c.ActivitySink = sink
			return c
		},
	)

	go purgeRevocations(ctx, repo.Revocations(), logger)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.GetAddr())
		errc <- srv.Serve(cfg.GetAddr())
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return srv.WrappedRouter().ShutdownWithTimeout(shutdownTimeout)
}

func purgeRevocations(ctx context.Context, revocations auth.Revocations, logger auth.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := revocations.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}

// newActivitySink normalizes auth events for the charchat channel. Failed
// logins carry no account, so the attempted identifier becomes the object.
func newActivitySink(emit func(ctx context.Context, record activitymap.Normalized) error) auth.ActivitySink {
	return activitymap.Sink(emit,
		activitymap.WithDefaultChannel(activityChannel),
		activitymap.WithActorFallback(unauthenticatedActor),
		activitymap.WithObjectIDResolver(activityObjectID),
	)
}

func activityObjectID(event auth.ActivityEvent) string {
	if event.AccountID != "" {
		return event.AccountID
	}
	identifier, _ := event.Metadata["identifier"].(string)
	return identifier
}
