// Package api is the admin HTTP surface. It never touches simulation state:
// reads come from the Status last published by the game loop, writes are
// queued as commands or controls and applied by the loop at tick start.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hearthfall/settlement/internal/config"
	"github.com/hearthfall/settlement/internal/data"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const statusInterval = time.Second

// Submitter queues gameplay commands. *game.Game satisfies it.
type Submitter interface {
	Submit(cmd game.Command) bool
}

type ControlKind string

const (
	ControlSpeed  ControlKind = "speed"
	ControlPause  ControlKind = "pause"
	ControlResume ControlKind = "resume"
	ControlSave   ControlKind = "save"
)

// Control is a request aimed at the loop itself rather than the simulation.
type Control struct {
	Kind  ControlKind
	Speed int
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config    config.APIConfig
	Game      Submitter
	Buildings *data.BuildingTable // read-only, used to validate placements
	Log       *zap.Logger
}

type Server struct {
	cfg       config.APIConfig
	game      Submitter
	buildings *data.BuildingTable
	log       *zap.Logger

	router   *chi.Mux
	hub      *Hub
	limiter  *IPRateLimiter
	status   atomic.Pointer[game.Status]
	controls chan Control
}

// NewServer builds the router. No goroutines start until Serve.
func NewServer(deps Deps) *Server {
	s := &Server{
		cfg:       deps.Config,
		game:      deps.Game,
		buildings: deps.Buildings,
		log:       deps.Log.Named("api"),
		limiter:   NewIPRateLimiter(deps.Config.RequestsPerSecond, deps.Config.Burst),
		controls:  make(chan Control, 16),
	}
	s.hub = NewHub(deps.Config.CORSOrigins, s.log)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(s.limiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/resources", s.handleResources)
		r.Get("/buildings/types", s.handleBuildingTypes)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/speed", s.handleSpeed)
			r.Post("/pause", s.handleControl(ControlPause))
			r.Post("/resume", s.handleControl(ControlResume))
			r.Post("/save", s.handleControl(ControlSave))

			r.Post("/buildings", s.handlePlace)
			r.Post("/buildings/{id}/upgrade", s.handleUpgrade)
			r.Post("/buildings/{id}/demolish", s.handleDemolish)
			r.Post("/workers/{id}/assign", s.handleAssign)
			r.Post("/workers/{id}/unassign", s.handleUnassign)
		})
	})
	return r
}

// Handler returns the router, for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live feed hub.
func (s *Server) Hub() *Hub { return s.hub }

// Controls delivers loop controls. Drain it from the game loop.
func (s *Server) Controls() <-chan Control { return s.controls }

// Publish makes st the status served to readers. Call from the game loop.
func (s *Server) Publish(st game.Status) {
	s.status.Store(&st)
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.startWorkers(ctx)
	srv := &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("api listening", zap.String("addr", s.cfg.BindAddress))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startWorkers runs the hub, the periodic status frame and the limiter sweep.
func (s *Server) startWorkers(ctx context.Context) {
	go s.hub.Run(ctx)
	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if st := s.status.Load(); st != nil && s.hub.ClientCount() > 0 {
					s.hub.Send("status", st)
				}
				if now.Second() == 0 {
					s.limiter.Sweep(now.Add(-limiterIdle))
				}
			}
		}
	}()
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observeRequest(r.Method, route, ww.Status())
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}
