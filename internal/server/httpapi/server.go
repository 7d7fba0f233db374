package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aquawatch/aquawatch/internal/logging"
	"github.com/aquawatch/aquawatch/internal/server/drift"
	"github.com/aquawatch/aquawatch/internal/server/inference"
	"github.com/aquawatch/aquawatch/internal/server/reports"
	"github.com/aquawatch/aquawatch/internal/server/users"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address   string
	logger    logging.Logger
	users     *users.Service
	inference *inference.Service
	reports   *reports.Service
	estimator *drift.Estimator
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us *users.Service, is *inference.Service,
	rs *reports.Service, est *drift.Estimator, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		inference: is,
		reports:   rs,
		estimator: est,
		jwtSecret: []byte(secretKey),
	}
}

// Handler builds the routing table wrapped in the default middleware
// chain. Login and registration are the only unauthenticated mutations;
// the drift probe is public.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/token", s.handleToken)

	mux.Handle("POST /model/predict", s.requireAuth(http.HandlerFunc(s.handlePredict)))
	mux.Handle("POST /model/explain", s.requireAuth(http.HandlerFunc(s.handleExplain)))
	mux.Handle("GET /model/reports", s.requireAuth(http.HandlerFunc(s.handleListReports)))
	mux.Handle("GET /model/reports/{id}", s.requireAuth(http.HandlerFunc(s.handleGetReport)))

	mux.HandleFunc("GET /monitor/drift", s.handleDrift)

	chain := ChainMiddleware(
		RecoveryMiddleware,
		RequestIDMiddleware,
		CORSMiddleware,
	)
	return chain(mux)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
