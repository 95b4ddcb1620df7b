// Package mockscorer serves a local stand-in for the scoring service. Verdicts
// come from trusted domains first, then YAML rules, then keyword heuristics.
package mockscorer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/scorer"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/whitelist"
)

const maxRequestSize = 1 << 20

// Server answers POST /analyze-url and POST /analyze-email
type Server struct {
	rules   Rules
	trusted *whitelist.Checker
	logger  *zap.Logger
	router  *chi.Mux

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a mock scorer. trusted may be nil.
func NewServer(rules Rules, trusted *whitelist.Checker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trusted == nil {
		trusted = whitelist.NewChecker(nil, logger)
	}

	s := &Server{
		rules:   rules,
		trusted: trusted,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/analyze-url", s.handleURL)
	r.Post("/analyze-email", s.handleEmail)
	s.router = r

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Mock scorer starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Mock scorer server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr is the address the server listens on, once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ScoreURL picks the verdict for a URL
func (s *Server) ScoreURL(rawURL string) core.AnalysisResult {
	if s.trusted.IsTrustedURL(rawURL) {
		return trustedResult(whitelist.HostOf(rawURL))
	}
	if rule, ok := find(s.rules.URL, rawURL); ok {
		return rule.result()
	}
	return ScoreURLHeuristics(rawURL)
}

// ScoreEmail picks the verdict for an email
func (s *Server) ScoreEmail(email core.EmailRecord) core.AnalysisResult {
	if s.trusted.IsTrustedSender(email.Sender) {
		return trustedResult(whitelist.SenderDomain(email.Sender))
	}
	text := strings.Join([]string{email.Sender, email.Subject, email.Body}, " ")
	if rule, ok := find(s.rules.Email, text); ok {
		return rule.result()
	}
	return ScoreEmailHeuristics(email)
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	var req scorer.URLRequest
	if !s.decode(w, r, &req) {
		return
	}
	result := s.ScoreURL(req.URL)
	s.logger.Debug("Scored URL",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("url", req.URL),
		zap.String("status", string(result.Status)),
		zap.Float64("risk_score", result.RiskScore))
	s.respond(w, result)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req scorer.EmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	result := s.ScoreEmail(core.EmailRecord{Sender: req.Sender, Subject: req.Subject, Body: req.Body})
	s.logger.Debug("Scored email",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("sender", req.Sender),
		zap.String("status", string(result.Status)),
		zap.Float64("risk_score", result.RiskScore))
	s.respond(w, result)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, result core.AnalysisResult) {
	if result.Reasons == nil {
		result.Reasons = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
