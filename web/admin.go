package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"autoria-importer/config"
	"autoria-importer/services"
	"autoria-importer/utils"
)

// Server exposes the admin import trigger over HTTP. The import itself runs
// synchronously inside the request; only one run is allowed at a time.
type Server struct {
	cfg      *config.Config
	importer *services.Importer
	logger   *utils.Logger
	running  sync.Mutex
}

// NewServer creates the admin HTTP server around an import orchestrator.
func NewServer(cfg *config.Config, importer *services.Importer, logger *utils.Logger) *Server {
	return &Server{cfg: cfg, importer: importer, logger: logger}
}

// Router builds the admin route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/admin/import", s.handleImport).Methods(http.MethodPost)
	return r
}

// ListenAndServe starts serving on the configured admin address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[web] Admin server listening on %s", s.cfg.AdminAddr)
	return http.ListenAndServe(s.cfg.AdminAddr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleImport triggers one bounded import run and returns the batch result.
// Responds 409 when a run is already in progress.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.running.TryLock() {
		http.Error(w, `{"error":"import already running"}`, http.StatusConflict)
		return
	}
	defer s.running.Unlock()

	limit := s.cfg.ImportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	owner := s.cfg.OwnerUsername
	if v := r.URL.Query().Get("owner"); v != "" {
		owner = v
	}

	s.logger.Info("[web] Import triggered — limit: %d, owner: %s", limit, owner)
	result := s.importer.Run(r.Context(), limit, owner)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("[web] Encode result: %v", err)
	}
}
