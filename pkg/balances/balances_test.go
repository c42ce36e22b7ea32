package balances

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
)

func ether(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ParseEther(s)
	require.NoError(t, err)
	return v
}

func TestParseEther(t *testing.T) {
	testCases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"1", "1000000000000000000", false},
		{"1.5", "1500000000000000000", false},
		{"0.000000000000000001", "1", false},
		{".25", "250000000000000000", false},
		{"12.", "12000000000000000000", false},
		{" 3 ", "3000000000000000000", false},
		{"-2", "-2000000000000000000", false},
		{"0.0000000000000000001", "", true},
		{"", "", true},
		{".", "", true},
		{"1e18", "", true},
		{"1,5", "", true},
		{"abc", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := ParseEther(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.String())
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	v, err = ParseAmount("0x0de0b6b3a7640000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.String())

	_, err = ParseAmount("0x")
	require.Error(t, err)

	_, err = ParseAmount("12abc")
	require.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Address,Amount",
		"0x1111111111111111111111111111111111111111,1.5",
		"",
		"0x2222222222222222222222222222222222222222, 2",
		",7",
		"# comment,1",
		"0x5B38Da6a701c568545dCfcB03FcB875f56beddC4,0.001\r",
	}, "\n")

	balances, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, balances, 3)

	assert.Equal(t, 0, ether(t, "1.5").Cmp(balances["0x1111111111111111111111111111111111111111"]))
	assert.Equal(t, 0, ether(t, "2").Cmp(balances["0x2222222222222222222222222222222222222222"]))
	assert.Equal(t, 0, ether(t, "0.001").Cmp(balances["0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"]))
}

func TestParseCSVErrors(t *testing.T) {
	t.Run("Repeated address", func(t *testing.T) {
		input := "0x1111111111111111111111111111111111111111,1\n0x1111111111111111111111111111111111111111,2\n"
		_, err := ParseCSV(strings.NewReader(input))
		require.ErrorIs(t, err, merkle.ErrDuplicateEntry)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("Missing amount", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("0x1111111111111111111111111111111111111111\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing amount")
	})

	t.Run("Bad amount", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("0x1111111111111111111111111111111111111111,lots\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})
}

func TestParseJSON(t *testing.T) {
	input := `{
		"0x1111111111111111111111111111111111111111": "1000",
		"0x2222222222222222222222222222222222222222": "0x64",
		"0x5B38Da6a701c568545dCfcB03FcB875f56beddC4": 42
	}`

	balances, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, int64(1000), balances["0x1111111111111111111111111111111111111111"].Int64())
	assert.Equal(t, int64(100), balances["0x2222222222222222222222222222222222222222"].Int64())
	assert.Equal(t, int64(42), balances["0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"].Int64())

	_, err = ParseJSON(strings.NewReader(`{"0x1111111111111111111111111111111111111111": true}`))
	require.Error(t, err)

	_, err = ParseJSON(strings.NewReader(`[1, 2]`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "balances.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("0x1111111111111111111111111111111111111111,1\n"), 0o600))
	balances, err := LoadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, balances, 1)

	jsonPath := filepath.Join(dir, "balances.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"0x1111111111111111111111111111111111111111": "5"}`), 0o600))
	balances, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balances["0x1111111111111111111111111111111111111111"].Int64())

	_, err = LoadFile(filepath.Join(dir, "balances.txt"))
	require.Error(t, err)

	txtPath := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = LoadFile(txtPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported balance file type")
}
