package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/npcbrain/internal/config"
	"github.com/zeusync/npcbrain/internal/core/ai/archetype"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
	"github.com/zeusync/npcbrain/internal/injector"
	"github.com/zeusync/npcbrain/internal/server"
)

func main() {
	configPath := flag.String("config", "", "simulation config file (YAML)")
	ticks := flag.Int("ticks", -1, "override simulation.ticks")
	stream := flag.String("stream", "", "serve the decision stream on this address")
	flag.Parse()

	if err := run(*configPath, *ticks, *stream); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

func run(configPath string, ticks int, streamAddr string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if ticks >= 0 {
		cfg.Simulation.Ticks = ticks
	}
	if streamAddr != "" {
		cfg.Stream.Enabled = true
		cfg.Stream.Addr = streamAddr
	}

	sim, err := injector.InitializeSimulation(cfg)
	if err != nil {
		return err
	}
	logger := sim.Logger
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = sim.Factory.Preload(); err != nil {
		return err
	}
	spawned, err := sim.SpawnConfigured()
	if err != nil {
		return err
	}
	logger.Info("Entities spawned", log.Int("count", spawned))

	if cfg.Stream.Enabled {
		s, err := server.NewStream(sim.Bus, server.Options{
			MaxClients:   cfg.Stream.MaxClients,
			ConnectRate:  cfg.Stream.ConnectRate,
			ConnectBurst: cfg.Stream.ConnectBurst,
		}, logger)
		if err != nil {
			return err
		}
		if _, err = s.Start(cfg.Stream.Addr); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Stream shutdown failed", log.Err(err))
			}
		}()
	}

	if cfg.Archetypes.Watch {
		w, err := archetype.NewWatcher(cfg.Archetypes.File, logger)
		if err != nil {
			return err
		}
		go func() {
			_ = w.Run(ctx, func(c *archetype.Catalog) {
				if err := sim.Factory.Replace(c); err != nil {
					return
				}
				sim.Manager.Rebind()
			})
		}()
	}

	err = sim.Manager.Run(ctx, cfg.Simulation.TickRate, cfg.Simulation.Ticks)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
