package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/anim"
	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	diag "github.com/coreman2200/funtimes-pedestals/internal/diagnostics"
	"github.com/coreman2200/funtimes-pedestals/internal/patterns"
)

// Control is what the control socket can ask of the installation.
type Control interface {
	SelectSection(i int) error
	RequestIdle() error
	SetAnim(s anim.State, theme int) error
	RunPattern(kind patterns.Kind) error
	StopPattern()
	SetBrightness(b float64)
	Status() map[string]any
}

// ControlMsg is one command. Fields are applied in declaration order;
// absent fields are ignored.
type ControlMsg struct {
	Section    *int     `json:"section,omitempty"`
	Idle       bool     `json:"idle,omitempty"`
	Anim       string   `json:"anim,omitempty"`
	Theme      int      `json:"theme,omitempty"`
	RunTest    *string  `json:"runTest,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
}

type Reply struct {
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Status map[string]any `json:"status,omitempty"`
}

var ErrEmptyCommand = errors.New("empty control command")

type Server struct {
	ctl     Control
	preview *Preview
	diag    *diag.Hub
	debug   *debugui.Registry
	start   time.Time

	up  websocket.Upgrader
	log zerolog.Logger
}

// NewServer builds the HTTP surface. preview, hub and debug may be nil.
func NewServer(ctl Control, preview *Preview, hub *diag.Hub, debug *debugui.Registry) *Server {
	return &Server{
		ctl:     ctl,
		preview: preview,
		diag:    hub,
		debug:   debug,
		start:   time.Now(),
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:     log.With().Str("component", "ws").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.preview != nil {
		mux.HandleFunc("/ws", s.preview.HandleFramesWS)
	}
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/debug", s.HandleDebug)
	return withCORS(mux)
}

// Apply runs one command against the installation.
func (s *Server) Apply(msg ControlMsg) error {
	var errs []error
	did := false
	if msg.Section != nil {
		did = true
		errs = append(errs, s.ctl.SelectSection(*msg.Section))
	}
	if msg.Idle {
		did = true
		errs = append(errs, s.ctl.RequestIdle())
	}
	if msg.Anim != "" {
		did = true
		st, err := anim.ParseState(msg.Anim)
		if err == nil {
			err = s.ctl.SetAnim(st, msg.Theme)
		}
		errs = append(errs, err)
	}
	if msg.RunTest != nil {
		did = true
		if *msg.RunTest == "" || *msg.RunTest == "stop" {
			s.ctl.StopPattern()
		} else {
			errs = append(errs, s.ctl.RunPattern(patterns.Kind(*msg.RunTest)))
		}
	}
	if msg.Brightness != nil {
		did = true
		b := *msg.Brightness
		if b < 0 || b > 1 {
			errs = append(errs, fmt.Errorf("brightness %.2f not in [0,1]", b))
		} else {
			s.ctl.SetBrightness(b)
		}
	}
	if !did {
		return ErrEmptyCommand
	}
	return errors.Join(errs...)
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMsg
		rep := Reply{OK: true}
		if err := json.Unmarshal(data, &msg); err != nil {
			rep = Reply{Error: "bad json: " + err.Error()}
		} else if err := s.Apply(msg); err != nil {
			rep = Reply{Error: err.Error()}
		}
		if !rep.OK {
			s.log.Warn().Str("cmd", string(data)).Str("error", rep.Error).Msg("control rejected")
			s.publish(diag.Diagnostic{Severity: diag.Warn, Code: diag.CodeControl, Summary: "Control command rejected", Detail: rep.Error})
		}
		rep.Status = s.ctl.Status()
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	if s.diag == nil {
		http.Error(w, "diagnostics disabled", http.StatusNotFound)
		return
	}
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	events, cancel := s.diag.Subscribe(16)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer conn.Close()
	for d := range events {
		conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := conn.WriteJSON(d); err != nil {
			cancel()
			return
		}
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.ctl.Status()
	if resp == nil {
		resp = map[string]any{}
	}
	resp["uptime_s"] = time.Since(s.start).Seconds()
	if s.preview != nil {
		resp["preview_clients"] = s.preview.Clients()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleDebug renders every debug panel, as JSON with ?format=json.
func (s *Server) HandleDebug(w http.ResponseWriter, r *http.Request) {
	if s.debug == nil {
		http.Error(w, "debug disabled", http.StatusNotFound)
		return
	}
	var err error
	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		err = s.debug.WriteJSON(w)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = s.debug.WriteText(w)
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("debug write")
	}
}

func (s *Server) publish(d diag.Diagnostic) {
	if s.diag != nil {
		s.diag.Publish(d)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
