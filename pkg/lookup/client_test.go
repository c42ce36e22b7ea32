package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/testutil"
)

func TestNewClient_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		config      *ClientConfig
		expectedErr string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectedErr: "config cannot be nil",
		},
		{
			name:        "empty base URL",
			config:      &ClientConfig{Logger: zap.NewNop()},
			expectedErr: "base URL is required",
		},
		{
			name:        "relative base URL",
			config:      &ClientConfig{BaseURL: "localhost", Logger: zap.NewNop()},
			expectedErr: "invalid base URL",
		},
		{
			name:        "nil logger",
			config:      &ClientConfig{BaseURL: "http://localhost:8080"},
			expectedErr: "logger is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.Nil(t, client)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func newTestClient(t *testing.T) (*Client, *httptest.Server, func() error) {
	t.Helper()
	store, _ := seedStore(t)
	s := NewServer(testServerConfig(), store, zap.NewNop())
	ts := httptest.NewServer(s.GetHandler())
	t.Cleanup(ts.Close)

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL + "/", Logger: zap.NewNop()})
	require.NoError(t, err)
	return client, ts, store.Close
}

func TestClient_GetClaims(t *testing.T) {
	client, _, _ := newTestClient(t)

	address := testutil.TestAddress(2)
	claims, err := client.GetClaims(context.Background(), "mainnet", address.Hex())
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, 1, claims[0].DistributionIndex)
	assert.Equal(t, 2, claims[1].DistributionIndex)
	for _, c := range claims {
		require.NotNil(t, c.Amount)
		assert.NotEmpty(t, c.Proof)
	}

	claims, err = client.GetClaims(context.Background(), "mainnet", testutil.TestAddress(500).Hex())
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestClient_GetClaims_ProofsVerify(t *testing.T) {
	client, _, _ := newTestClient(t)
	_, published := seedStore(t)

	address := testutil.TestAddress(1)
	claims, err := client.GetClaims(context.Background(), "mainnet", address.Hex())
	require.NoError(t, err)
	require.Len(t, claims, 2)
	for i, c := range claims {
		assert.True(t, merkle.VerifyProof(c.Index, address, c.Amount.ToInt(), c.Proof, published[i].MerkleRoot))
	}
}

func TestClient_BadRequest(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.GetClaims(context.Background(), "ropsten", testutil.TestAddress(1).Hex())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Bad request", statusErr.Message)
	assert.NotEmpty(t, statusErr.RequestID)
}

func TestClient_Health(t *testing.T) {
	client, _, closeStore := newTestClient(t)

	require.NoError(t, client.Health(context.Background()))

	require.NoError(t, closeStore())
	err := client.Health(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestClient_Unreachable(t *testing.T) {
	client, ts, _ := newTestClient(t)
	ts.Close()

	_, err := client.GetClaims(context.Background(), "mainnet", testutil.TestAddress(1).Hex())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to contact lookup server")
}
