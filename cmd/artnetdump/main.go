// artnetdump listens for ArtDMX packets and prints them, standing in for a
// node when checking the controller on the bench.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/artnet"
)

func main() {
	var (
		addr  = flag.String("addr", fmt.Sprintf(":%d", artnet.Port), "UDP listen address")
		bytes = flag.Int("bytes", 12, "payload bytes to print per packet")
		quiet = flag.Bool("quiet", false, "print only a per-second summary")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	m, err := artnet.Listen(*addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("listen")
	}
	defer m.Close()
	log.Info().Str("addr", m.Addr().String()).Msg("listening for ArtDMX")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counts := map[uint16]int{}
	last := time.Now()
	err = m.Run(ctx, func(p artnet.DMXPacket, from *net.UDPAddr) {
		counts[p.Universe]++
		if !*quiet {
			n := min(*bytes, p.Length)
			fmt.Printf("%s %s % x\n", from, p, p.Data[:n])
		}
		if time.Since(last) >= time.Second {
			var sb strings.Builder
			for u := uint16(0); u < 64; u++ {
				if c, ok := counts[u]; ok {
					fmt.Fprintf(&sb, " u%d=%d", u, c)
				}
			}
			log.Info().Str("packets", strings.TrimSpace(sb.String())).Msg("last second")
			clear(counts)
			last = time.Now()
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("receive")
	}
}
