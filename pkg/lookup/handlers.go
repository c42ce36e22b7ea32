package lookup

import (
	"encoding/json"
	"net/http"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// FindClaims collects the claims of a checksummed address across a
// network's distributions, given in distribution index order. The result is
// never nil so it encodes as [].
func FindClaims(distributions []*types.Distribution, address string) []*types.Claim {
	claims := []*types.Claim{}
	for i, d := range distributions {
		if c, ok := d.ClaimFor(address, i+1); ok {
			claims = append(claims, c)
		}
	}
	return claims
}

// handleClaims handles GET /{network}/{address}
func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	network := r.PathValue("network")
	rawAddress := r.PathValue("address")

	if !s.cfg.ServesNetwork(network) {
		s.logger.Sugar().Debugw("Rejected lookup for unknown network", "request_id", requestID, "network", network)
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}

	address, err := merkle.ChecksumAddress(rawAddress)
	if err != nil {
		s.logger.Sugar().Debugw("Rejected lookup for malformed address", "request_id", requestID, "address", rawAddress, "error", err)
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}

	distributions, err := s.store.ListDistributions(network)
	if err != nil {
		s.logger.Sugar().Errorw("Failed to list distributions", "request_id", requestID, "network", network, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	claims := FindClaims(distributions, address)

	s.logger.Sugar().Infow("Served claims",
		"request_id", requestID,
		"network", network,
		"address", address,
		"claims", len(claims),
	)
	writeJSON(w, http.StatusOK, claims)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(); err != nil {
		s.logger.Sugar().Warnw("Health check failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleFallback answers every request no route matched
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeError(w, http.StatusBadRequest, "Bad request")
}
