package lookup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/config"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/testutil"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

func testServerConfig() *config.LookupServerConfig {
	return &config.LookupServerConfig{
		Port:     config.DefaultPort,
		Networks: []config.ChainName{config.ChainName_EthereumMainnet, config.ChainName_EthereumKovan},
	}
}

// seedStore publishes two mainnet distributions that share recipients 1 and 2.
func seedStore(t *testing.T) (*memory.MemoryStore, []*types.Distribution) {
	t.Helper()
	store := memory.NewMemoryStore(zap.NewNop())

	var published []*types.Distribution
	for i, seedOffset := range []int{0, 1} {
		d, err := distribution.Assemble(testutil.CreateTestBalances(3, seedOffset), "week")
		require.NoError(t, err)
		idx, err := store.AppendDistribution("mainnet", d)
		require.NoError(t, err)
		require.Equal(t, i+1, idx)
		published = append(published, d)
	}
	return store, published
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeClaims(t *testing.T, rec *httptest.ResponseRecorder) []*types.Claim {
	t.Helper()
	var claims []*types.Claim
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	return claims
}

func TestHandleClaims_AddressInEveryDistribution(t *testing.T) {
	store, published := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	address := testutil.TestAddress(1)
	rec := get(t, s.GetHandler(), "/mainnet/"+address.Hex())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	claims := decodeClaims(t, rec)
	require.Len(t, claims, 2)
	for i, c := range claims {
		assert.Equal(t, i+1, c.DistributionIndex)
		want := published[i].Recipients[address.Hex()]
		assert.Equal(t, want.Index, c.Index)
		assert.Equal(t, want.AmountInt(), c.Amount.ToInt())
		assert.True(t, merkle.VerifyProof(c.Index, address, c.Amount.ToInt(), c.Proof, published[i].MerkleRoot))
	}
}

func TestHandleClaims_AddressInOneDistribution(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	// seed 3 only appears in the second distribution
	rec := get(t, s.GetHandler(), "/mainnet/"+testutil.TestAddress(3).Hex())
	require.Equal(t, http.StatusOK, rec.Code)

	claims := decodeClaims(t, rec)
	require.Len(t, claims, 1)
	assert.Equal(t, 2, claims[0].DistributionIndex)
}

func TestHandleClaims_CanonicalizesAddress(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	lower := strings.ToLower(testutil.TestAddress(0).Hex())
	rec := get(t, s.GetHandler(), "/mainnet/"+lower)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeClaims(t, rec), 1)

	rec = get(t, s.GetHandler(), "/mainnet/"+strings.TrimPrefix(lower, "0x"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeClaims(t, rec), 1)
}

func TestHandleClaims_UnknownAddressIsEmptyArray(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	rec := get(t, s.GetHandler(), "/mainnet/"+testutil.TestAddress(999).Hex())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	// Configured network with nothing published
	rec = get(t, s.GetHandler(), "/kovan/"+testutil.TestAddress(1).Hex())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleClaims_BadRequests(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	good := testutil.TestAddress(1).Hex()
	badChecksum := "0x5b38Da6a701c568545dCfcB03FcB875f56beddC4"

	for _, path := range []string{
		"/ropsten/" + good,
		"/sepolia/" + good, // supported network, not served
		"/Mainnet/" + good,
		"/mainnet/0x1234",
		"/mainnet/" + badChecksum,
		"/mainnet",
		"/mainnet/" + good + "/extra",
		"/",
	} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, s.GetHandler(), path)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Bad request"}`, rec.Body.String())
		})
	}
}

func TestHandleClaims_MethodNotAllowed(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/mainnet/"+testutil.TestAddress(1).Hex(), nil)
	rec := httptest.NewRecorder()
	s.GetHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleClaims_StoreFailure(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())
	require.NoError(t, store.Close())

	rec := get(t, s.GetHandler(), "/mainnet/"+testutil.TestAddress(1).Hex())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	rec := get(t, s.GetHandler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, store.Close())
	rec = get(t, s.GetHandler(), "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Contains(t, resp.Error, "closed")
}

func TestRequestID(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	first := get(t, s.GetHandler(), "/health").Header().Get(HeaderRequestID)
	second := get(t, s.GetHandler(), "/mainnet/0x1234").Header().Get(HeaderRequestID)

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	_, err = uuid.Parse(second)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRateLimit(t *testing.T) {
	store, _ := seedStore(t)
	cfg := testServerConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	s := NewServer(cfg, store, zap.NewNop())

	assert.Equal(t, http.StatusOK, get(t, s.GetHandler(), "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, s.GetHandler(), "/health").Code)

	rec := get(t, s.GetHandler(), "/health")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRateLimitDisabled(t *testing.T) {
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, get(t, s.GetHandler(), "/health").Code)
	}
}
