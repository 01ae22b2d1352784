// Package input turns operator keys and hardware buttons into level
// commands.
package input

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Target receives the commands.
type Target interface {
	SelectSection(i int) error
	RequestIdle() error
}

// ReadKeys reads one command per line from r: a section number, "s" for
// idle, "q" to quit. It returns when r is exhausted or after calling quit.
func ReadKeys(r io.Reader, t Target, quit func()) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key := strings.ToLower(strings.TrimSpace(sc.Text()))
		switch key {
		case "":
			continue
		case "q":
			if quit != nil {
				quit()
			}
			return nil
		case "s":
			if err := t.RequestIdle(); err != nil {
				log.Warn().Err(err).Msg("idle request")
			}
		default:
			n, err := strconv.Atoi(key)
			if err != nil {
				log.Warn().Str("key", key).Msg("unknown key")
				continue
			}
			if err := t.SelectSection(n); err != nil {
				log.Warn().Err(err).Int("section", n).Msg("section select")
			}
		}
	}
	return sc.Err()
}
