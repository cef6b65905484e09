package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vinayprograms/agentkit/logging"
	"tailscale.com/tsnet"

	"github.com/guangxiangdebizi/tradingagents/internal/config"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
	"github.com/guangxiangdebizi/tradingagents/internal/supervisor"
)

const maxRequestBody = 64 * 1024

// Run starts the HTTP control API and serves until interrupted.
func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	rt := newRuntime(cfg)
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.cleanup()

	var ln net.Listener
	if c.Tailscale {
		ts := &tsnet.Server{
			Hostname: c.Hostname,
			Dir:      filepath.Join(cfg.StoragePath(), "tsnet"),
		}
		defer ts.Close()
		ln, err = ts.Listen("tcp", c.Listen)
		if err != nil {
			return fmt.Errorf("joining tailnet: %w", err)
		}
	} else {
		ln, err = net.Listen("tcp", c.Listen)
		if err != nil {
			return err
		}
	}

	api := newAPIServer(rt.sup, cfg)
	httpSrv := &http.Server{
		Handler:     api.routes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
			return
		}
		errs <- nil
	}()
	fmt.Fprintf(os.Stderr, "listening on %s\n", ln.Addr())

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return rt.sup.Shutdown(shutdownCtx)
}

// apiServer exposes supervisor operations over HTTP.
type apiServer struct {
	sup *supervisor.Supervisor
	cfg *config.Config
	log *logging.Logger
}

func newAPIServer(sup *supervisor.Supervisor, cfg *config.Config) *apiServer {
	return &apiServer{
		sup: sup,
		cfg: cfg,
		log: logging.New().WithComponent("api"),
	}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/runs", s.handleStart)
	mux.HandleFunc("GET /v1/runs", s.handleList)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleStatus)
	mux.HandleFunc("POST /v1/runs/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /v1/runs/{id}/result", s.handleResult)
	mux.HandleFunc("POST /v1/runs/{id}/resume", s.handleResume)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// startRunRequest admits a run. Anything unset falls back to the
// server's configured trading defaults.
type startRunRequest struct {
	Subject      string   `json:"subject"`
	AsOfDate     string   `json:"as_of_date,omitempty"`
	Analysts     []string `json:"analysts,omitempty"`
	DebateRounds int      `json:"debate_rounds,omitempty"`
	RiskRounds   int      `json:"risk_rounds,omitempty"`
}

type resultResponse struct {
	Result *state.FinalResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func (s *apiServer) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	params, err := requestParams(s.cfg, req.Subject, req.AsOfDate, req.Analysts, req.DebateRounds, req.RiskRounds)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	runID, err := s.sup.StartRun(params)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.log.Info("run admitted via api", map[string]interface{}{"run": runID, "subject": params.Subject})
	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": s.sup.List()})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.sup.GetStatus(r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.sup.Cancel(r.PathValue("id")); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.sup.GetResult(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, supervisor.ErrRunNotFound) || errors.Is(err, supervisor.ErrRunNotTerminal) {
			s.writeError(w, statusFor(err), err)
			return
		}
		// Failed run: the error travels with whatever partial result exists.
		s.writeJSON(w, http.StatusOK, resultResponse{Result: result, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (s *apiServer) handleResume(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if err := s.sup.Resume(runID); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

// statusFor maps supervisor errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, supervisor.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, supervisor.ErrRunNotTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}
