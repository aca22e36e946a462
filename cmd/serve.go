package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/songshare/internal/relay"
	"github.com/desertthunder/songshare/internal/repositories"
	"github.com/desertthunder/songshare/internal/server"
	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve validates the configuration, wires the upstream clients and runs the webhook server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return err
	}

	r.logger.Debug("phone configuration",
		"from", shared.MaskPhoneNumber(config.Credentials.Twilio.From),
		"recipient", shared.MaskPhoneNumber(config.Relay.Recipient),
	)

	rl, closeCache, err := r.buildRelay(config)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(config.Server.Addr(), rl, r.logger).Start(ctx)
}

// buildRelay assembles a [relay.Relay] from the configured services and, when enabled, the resolution cache.
// The returned func releases the cache database and is never nil.
func (r *Runner) buildRelay(config *shared.Config) (*relay.Relay, func(), error) {
	noop := func() {}

	catalog, err := r.catalogService()
	if err != nil {
		return nil, noop, err
	}
	search, err := r.searchService()
	if err != nil {
		return nil, noop, err
	}
	messenger, err := r.messengerService()
	if err != nil {
		return nil, noop, err
	}

	var cache relay.Cache
	closeCache := noop
	if config.Database.Enabled() {
		db, err := shared.OpenCache(config.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open resolution cache: %w", err)
		}
		closeCache = func() { db.Close() }

		repo := repositories.NewResolutionRepository(db)
		cache = repositories.NewResolutionCacheAdapter(repo, config.Database.TTL(), shared.WithLogger(r.logger, "component", "cache"))
		r.logger.Info("resolution cache enabled", "path", config.Database.Path)
	}

	rl, err := relay.New(relay.Options{
		Catalog:       catalog,
		Search:        search,
		Messenger:     messenger,
		Cache:         cache,
		Recipient:     config.Relay.Recipient,
		RecipientName: config.Relay.RecipientName,
		ConfirmSender: config.Relay.ConfirmSender,
		Logger:        r.logger,
	})
	if err != nil {
		closeCache()
		return nil, noop, err
	}

	return rl, closeCache, nil
}
