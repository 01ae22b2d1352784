package input

import "github.com/rs/zerolog/log"

// dispatch sends the command bound to a line offset; section 0 means idle.
func dispatch(t Target, byOff map[int]int, offset int) {
	section, ok := byOff[offset]
	if !ok {
		return
	}
	var err error
	if section == 0 {
		err = t.RequestIdle()
	} else {
		err = t.SelectSection(section)
	}
	if err != nil {
		log.Warn().Err(err).Int("offset", offset).Int("section", section).Msg("button")
	}
}
