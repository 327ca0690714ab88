package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hearthfall/settlement/internal/core/ecs"
	"github.com/hearthfall/settlement/internal/game"
	"github.com/hearthfall/settlement/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxSpeed = 16

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var tick uint64
	if st := s.status.Load(); st != nil {
		tick = st.Tick
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": tick})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Load()
	if st == nil {
		writeError(w, "simulation not started", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResources(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Load()
	if st == nil {
		writeError(w, "simulation not started", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"used":      st.StorageUsed,
		"capacity":  st.StorageCapacity,
		"resources": st.Resources,
	})
}

func (s *Server) handleBuildingTypes(w http.ResponseWriter, _ *http.Request) {
	if s.buildings == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	writeJSON(w, http.StatusOK, s.buildings.Types())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed *int `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Speed == nil {
		writeError(w, "body must be {\"speed\": n}", http.StatusBadRequest)
		return
	}
	if *req.Speed < 0 || *req.Speed > maxSpeed {
		writeError(w, fmt.Sprintf("speed must be within 0..%d", maxSpeed), http.StatusBadRequest)
		return
	}
	s.sendControl(w, Control{Kind: ControlSpeed, Speed: *req.Speed})
}

func (s *Server) handleControl(kind ControlKind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.sendControl(w, Control{Kind: kind})
	}
}

func (s *Server) sendControl(w http.ResponseWriter, c Control) {
	select {
	case s.controls <- c:
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": c.Kind})
	default:
		writeError(w, "control queue full", http.StatusServiceUnavailable)
	}
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var cmd game.PlaceCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.Type == "" {
		writeError(w, "body must be {\"type\": ..., \"x\": n, \"y\": n}", http.StatusBadRequest)
		return
	}
	if s.buildings != nil {
		if _, ok := s.buildings.Get(cmd.Type); !ok {
			msg := fmt.Sprintf("unknown building type %q", cmd.Type)
			if near := s.buildings.Suggest(cmd.Type); near != "" {
				msg += fmt.Sprintf(", did you mean %q?", near)
			}
			writeError(w, msg, http.StatusBadRequest)
			return
		}
	}
	s.submit(w, cmd)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.submit(w, game.UpgradeCommand{Building: id})
	}
}

func (s *Server) handleDemolish(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.submit(w, game.DemolishCommand{Building: id})
	}
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Building uint64 `json:"building"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Building == 0 {
		writeError(w, "body must be {\"building\": id}", http.StatusBadRequest)
		return
	}
	s.submit(w, game.AssignCommand{Worker: id, Building: ecs.EntityID(req.Building)})
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.submit(w, game.UnassignCommand{Worker: id})
	}
}

// submit queues cmd. The outcome is only known at the next tick, so success
// here means accepted, not applied.
func (s *Server) submit(w http.ResponseWriter, cmd game.Command) {
	if !s.game.Submit(cmd) {
		writeError(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	s.log.Debug("command queued", zap.String("cmd", cmd.String()))
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": cmd.String()})
}

func pathID(w http.ResponseWriter, r *http.Request) (ecs.EntityID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, fmt.Sprintf("bad id %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return ecs.EntityID(id), true
}

// requireAdmin checks the bearer token against the configured bcrypt hash.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	hash := []byte(s.cfg.AdminTokenHash)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(hash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			metrics.Rejected.WithLabelValues("auth").Inc()
			writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func observeRequest(method, route string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
