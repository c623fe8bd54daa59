// Package server initializes and runs the account service: it wires the
// record store, directory, identity lifecycle and HTTP surface together,
// starts the background sweeps, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"github.com/snoofz/snofbase/internal/logging"
	"github.com/snoofz/snofbase/internal/server/auth"
	"github.com/snoofz/snofbase/internal/server/avatar"
	"github.com/snoofz/snofbase/internal/server/chat"
	"github.com/snoofz/snofbase/internal/server/config"
	"github.com/snoofz/snofbase/internal/server/directory"
	"github.com/snoofz/snofbase/internal/server/httpapi"
	"github.com/snoofz/snofbase/internal/server/identity"
	"github.com/snoofz/snofbase/internal/server/mail"
	"github.com/snoofz/snofbase/internal/snof"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	pending *identity.PendingStore
	web     *fiber.App
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store := snof.NewStore(cfg.DatabaseFile)
	dir := directory.New(store)
	pending := identity.NewPendingStore(cfg.VerificationWindow)

	notifier, err := mail.NewSMTPNotifier(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	var avatars identity.AvatarFetcher
	if cfg.AvatarEndpoint != "" {
		avatars = avatar.NewGravatarFetcher(cfg.AvatarEndpoint)
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	identitySvc := identity.NewService(dir, pending, notifier, hasher, avatars, logger, cfg.ResetTokenTTL)

	web := httpapi.NewApp(identitySvc, chat.NewBoard(cfg.ChatBacklogLimit), logger, httpapi.Options{
		SessionSecret: []byte(cfg.SessionSecret),
		SessionTTL:    cfg.SessionTTL,
		PublicDir:     cfg.PublicDir,
	})

	return &App{config: cfg, logger: logger, pending: pending, web: web}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "listening", "addr", app.config.EndpointAddrHTTP)
	if err := app.web.Listen(app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.pending.Run(ctx, app.config.PendingSweepInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()
	if err := app.web.Shutdown(); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err.Error())
	}

	wg.Wait()
}
