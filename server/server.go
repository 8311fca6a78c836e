package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	parley "github.com/parley-ai/parley"
	"github.com/parley-ai/parley/logging"
	"github.com/parley-ai/parley/session"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives request diagnostics and model-call accounting.
	Logger *logging.ParleyLogger
}

// Server binds a Parley instance to HTTP routes:
//
//	POST /rounds                  -> start a round, 202 with its coordinates
//	POST /rounds/{id}/cancel      -> request cooperative cancellation, 202
//	GET  /rounds/{id}/events      -> SSE stream of the round's frames
//	POST /invoke                  -> synchronous single-persona answer
//	GET  /sessions/{id}/history   -> raw transcript dump
//	GET  /healthz                 -> liveness probe
type Server struct {
	p      *parley.Parley
	logger *logging.ParleyLogger
}

// New constructs a Server around the given Parley instance.
func New(p *parley.Parley, optFns ...func(o *Options)) *Server {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(nil)
	}

	return &Server{p: p, logger: logger.WithComponent("server")}
}

// Handler returns the route-bound handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rounds", s.handleStartRound)
	mux.HandleFunc("POST /rounds/{id}/cancel", s.handleCancelRound)
	mux.HandleFunc("GET /rounds/{id}/events", s.handleRoundEvents)
	mux.HandleFunc("POST /invoke", s.handleInvoke)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return mux
}

// ListenAndServe is a helper that binds the handler and blocks.
func ListenAndServe(addr string, p *parley.Parley, optFns ...func(o *Options)) error {
	s := New(p, optFns...)
	s.logger.Info("http server listening addr=%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req parley.StartRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	info, err := s.p.StartRound(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logger.WithRound(info.RoundID).Info("round.accepted personas=%d", len(info.Personas))
	writeJSON(w, http.StatusAccepted, info)
}

type cancelResponse struct {
	Status  string `json:"status"`
	RoundID string `json:"round_id"`
}

func (s *Server) handleCancelRound(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("id")
	s.p.CancelRound(roundID)
	writeJSON(w, http.StatusAccepted, cancelResponse{Status: "cancelling", RoundID: roundID})
}

type invokeRequest struct {
	Persona   string `json:"persona"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	start := time.Now()
	res, err := s.p.InvokeSync(r.Context(), req.Persona, req.Message, req.SessionID)

	tokens := 0
	if res != nil && res.Usage != nil {
		tokens = res.Usage.TotalTokens
	}
	s.logger.LogModelCall(s.p.InvokerInfo().Name, tokens, time.Since(start), err == nil, err)

	if err != nil {
		if errors.Is(err, parley.ErrUnknownPersona) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type historyResponse struct {
	SessionID string          `json:"session_id"`
	History   []session.Entry `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	writeJSON(w, http.StatusOK, historyResponse{
		SessionID: sessionID,
		History:   s.p.History(sessionID),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
