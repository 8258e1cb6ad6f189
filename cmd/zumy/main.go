package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anggahrm/dc-zumy/internal/bot"
	"github.com/Anggahrm/dc-zumy/internal/commands"
	"github.com/Anggahrm/dc-zumy/internal/config"
	"github.com/Anggahrm/dc-zumy/internal/cooldown"
	"github.com/Anggahrm/dc-zumy/internal/dispatch"
	"github.com/Anggahrm/dc-zumy/internal/loader"
	"github.com/Anggahrm/dc-zumy/internal/logging"
	"github.com/Anggahrm/dc-zumy/internal/permission"
	"github.com/Anggahrm/dc-zumy/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFile)
	log.Info().Msg("Starting zumy bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, store.Options{
		Driver:   cfg.DatabaseDriver,
		DSN:      cfg.DatabaseURL,
		Path:     cfg.DatabasePath,
		Debounce: cfg.SaveDebounce,
	}, log)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}

	manifest := commands.Manifest()
	reg, err := loader.Load(manifest, log)
	if err != nil {
		return err
	}
	reload := func() (int, error) { return loader.Reload(reg, manifest, log) }

	events := commands.Events(st, log)
	if err := loader.ValidateEvents(events); err != nil {
		return err
	}

	cooldowns := cooldown.New()
	go cooldowns.Sweep(ctx, time.Minute)

	perms := permission.New(cfg.Owners)
	dispatcher := dispatch.New(reg, cooldowns, perms, st, log, reload)

	b, err := bot.New(cfg, reg, dispatcher, events, reload, log)
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		return err
	}
	log.Info().Int("commands", reg.Size()).Msg("Bot is up")

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		log.Info().Str("signal", s.String()).Msg("Shutting down")
		cancel()
	}()

	b.Run(ctx)

	b.Stop()
	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer flushCancel()
	if err := st.Close(flushCtx); err != nil {
		log.Warn().Err(err).Msg("Record store close returned an error")
	}
	log.Info().Msg("Goodbye")
	return nil
}
