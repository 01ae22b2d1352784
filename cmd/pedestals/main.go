package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/app"
	"github.com/coreman2200/funtimes-pedestals/internal/config"
	"github.com/coreman2200/funtimes-pedestals/internal/input"
)

func main() {
	// ---- Flags (explicitly set flags win over config.yaml) ----
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		writeConfig = flag.Bool("write-config", false, "write the effective config to -config and exit")
		driver      = flag.String("driver", "artnet", "output driver: artnet | sim")
		host        = flag.String("host", "localhost", "Art-Net node host name or IP")
		addr        = flag.String("addr", ":8080", "HTTP listen address, empty to disable")
		fps         = flag.Int("fps", 60, "target frames per second")
		brightness  = flag.Float64("brightness", 1, "global brightness 0..1")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no network output)")
		keys        = flag.Bool("keys", true, "read section keys (1-6, s, q) from stdin")
		buttons     = flag.Bool("buttons", false, "read section buttons from GPIO")
		level       = flag.String("log-level", "info", "zerolog level")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if lv, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lv)
	}

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config invalid")
		}
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults and flags")
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "host":
			cfg.ArtNet.Host = *host
		case "addr":
			cfg.HTTP.Addr = *addr
		case "fps":
			cfg.FPS = *fps
		case "brightness":
			cfg.Power.Brightness = *brightness
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opt := app.Options{}
	if *simOnly {
		opt.Force = "sim"
	}
	core, err := app.InitCore(ctx, cfg, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	// ---- HTTP ----
	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      core.Server().Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("http server crashed")
			}
		}()
	}

	// ---- Input ----
	if *keys {
		go func() {
			if err := input.ReadKeys(os.Stdin, core, stop); err != nil {
				log.Warn().Err(err).Msg("stdin")
			}
		}()
	}
	if *buttons {
		b, err := input.OpenButtons(cfg.GPIO.Chip, cfg.GPIO.Sections, cfg.GPIO.Idle, cfg.GPIO.Debounce.D(), core)
		if err != nil {
			log.Warn().Err(err).Msg("buttons unavailable")
		} else {
			defer b.Close()
		}
	}

	log.Info().
		Str("driver", cfg.Driver).
		Str("host", cfg.ArtNet.Host).
		Int("leds", cfg.PixelCount()).
		Str("version", app.Version).
		Msg("pedestals running")
	if err := core.Run(ctx); err != nil {
		log.Error().Err(err).Msg("frame loop")
	}

	// ---- Shutdown ----
	log.Info().Msg("shutting down")
	if srv != nil {
		_ = srv.Close()
	}
	if err := core.Blackout(); err != nil {
		log.Warn().Err(err).Msg("blackout")
	}
	// give the sender a moment to flush the dark frame
	time.Sleep(50 * time.Millisecond)
	if err := core.Close(); err != nil {
		log.Warn().Err(err).Msg("close outputs")
	}
}
