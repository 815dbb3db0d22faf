// Package debugapi exposes a read-only introspection surface over a
// running simulation core: current frame, checksum, phase, and the
// kernel's own diagnostic counters. It generalizes the teacher engine's
// internal/api/observability.go + server.go split — a chi.Mux built once in
// the constructor, background work (none here; there's no websocket hub to
// run) deferred to Start, and a Router() escape hatch for httptest — to the
// simulation's read-only surface. It carries no gameplay logic: every
// handler only reads from *sim.Core via its exported Get* methods.
package debugapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wolfpit/internal/sim"
	"wolfpit/internal/sim/eventlog"
)

// Server is the debug/introspection HTTP surface for one simulation core.
type Server struct {
	core   *sim.Core
	events *eventlog.Log
	router *chi.Mux
}

// NewServer builds the router but starts no goroutines or listeners,
// mirroring the teacher's NewServer/Start split so it stays usable with
// httptest without a live port.
func NewServer(core *sim.Core, events *eventlog.Log) *Server {
	s := &Server{core: core, events: events}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/debug/state", s.handleState)
	r.Get("/debug/eventlog", s.handleEventLog)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// stateView is the JSON shape returned by /debug/state; it intentionally
// exposes only frame/phase/checksum — no per-player data, since this
// surface is for run-level introspection, not a replacement renderer feed.
type stateView struct {
	Frame    uint32 `json:"frame"`
	Phase    string `json:"phase"`
	Checksum uint64 `json:"checksum"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view := stateView{
		Frame:    s.core.FrameNumber(),
		Phase:    s.core.PhaseName(),
		Checksum: s.core.Checksum(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.events == nil {
		json.NewEncoder(w).Encode(eventlog.Stats{})
		return
	}
	json.NewEncoder(w).Encode(s.events.GetStats())
}

// Router returns the HTTP handler for use with httptest, exactly as the
// teacher's Server.Router does.
func (s *Server) Router() http.Handler { return s.router }

// Start begins serving on addr. This is the only method that opens a
// network listener, kept separate from the constructor for testability.
func (s *Server) Start(addr string) error {
	log.Printf("debug surface listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
