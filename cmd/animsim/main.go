// animsim steps the animation and level logic in virtual time and prints
// per-segment brightness, so timings can be checked without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/app"
	"github.com/coreman2200/funtimes-pedestals/internal/config"
	"github.com/coreman2200/funtimes-pedestals/internal/led"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml")
		fps        = flag.Int("fps", 60, "simulation frames per second")
		duration   = flag.Duration("duration", 12*time.Second, "virtual time to simulate")
		every      = flag.Duration("every", 100*time.Millisecond, "print interval")
		section    = flag.Int("section", 3, "section to select, 0 for none")
		at         = flag.Duration("at", 4*time.Second, "when to select the section")
		idleAt     = flag.Duration("idle-at", 8*time.Second, "when to request idle, 0 for never")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = c
	}
	cfg.Driver = "sim"
	cfg.HTTP.Addr = ""
	cfg.Mirror.Enabled = false
	cfg.FPS = *fps

	tap := led.NewSim(0)
	core, err := app.InitCore(context.Background(), cfg, app.Options{Drivers: []led.Driver{tap}})
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	defer core.Close()

	lay := cfg.Layout()
	dt := time.Second / time.Duration(*fps)
	var now, nextPrint time.Duration
	selected, idled := false, false
	for now <= *duration {
		if !selected && *section > 0 && now >= *at {
			selected = true
			if err := core.SelectSection(*section); err != nil {
				log.Warn().Err(err).Msg("select")
			}
		}
		if !idled && *idleAt > 0 && now >= *idleAt {
			idled = true
			if err := core.RequestIdle(); err != nil {
				log.Warn().Err(err).Msg("idle")
			}
		}
		core.Conductor.Step(dt)

		if now >= nextPrint {
			nextPrint += *every
			frame := core.Engine.Snapshot(nil)
			var sb strings.Builder
			for seg := 0; seg <= lay.Pedestals; seg++ {
				fmt.Fprintf(&sb, " %3d", avg(frame, seg*lay.PixelsPerSegment, lay.PixelsPerSegment))
			}
			fmt.Printf("%7.2fs %-10s %-14s |%s\n", now.Seconds(), core.Level.State(), core.Engine.State(), sb.String())
		}
		now += dt
	}
	fmt.Printf("frames sent: %d\n", tap.Count())
}

// avg is the mean channel value over n pixels from start.
func avg(rgb []byte, start, n int) int {
	sum := 0
	for i := start * 3; i < (start+n)*3 && i < len(rgb); i++ {
		sum += int(rgb[i])
	}
	if n == 0 {
		return 0
	}
	return sum / (n * 3)
}
