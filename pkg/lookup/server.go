package lookup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence"
)

/*
Server answers claim lookups for published distributions.

Routes:
  GET /{network}/{address}
    - network must be one the server is configured for
    - address is any valid form of an account; it is checksummed before lookup
    - Response: JSON array of { distributionIndex, index, amount, proof },
      one element per stored distribution containing the address, in
      distribution index order. An address in no distribution gets [].
    - 400 {"error":"Bad request"} for an unknown network or malformed address

  GET /health
    - 200 {"status":"ok"} when the store passes its health check, 503 otherwise

All responses carry an X-Request-Id header. Requests beyond the configured
token bucket are rejected with 429 before reaching a handler.
*/
type Server struct {
	cfg        *config.LookupServerConfig
	store      persistence.IDistributionStore
	logger     *zap.Logger
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.LookupServerConfig, store persistence.IDistributionStore, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		limiter: newLimiter(cfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{network}/{address}", s.handleClaims)
	mux.HandleFunc("/", s.handleFallback)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.withRequestID(s.withRateLimit(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func newLimiter(cfg *config.LookupServerConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting lookup server", "port", s.httpServer.Addr, "networks", s.cfg.Networks)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx is done, then closes the server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		_ = s.httpServer.Close()
		return err
	}
	return nil
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
