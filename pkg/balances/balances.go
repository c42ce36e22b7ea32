// Package balances reads the balance files a distribution is built from.
//
// Two formats are supported:
//
//	CSV:  one "address,amount" pair per line, amount in whole tokens with up
//	      to 18 decimals ("1.5"); lines not starting with 0x are ignored.
//	JSON: an object mapping address to amount in base units, as a decimal or
//	      0x-prefixed hex string.
package balances

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
)

// Decimals is the number of fractional digits of a whole token.
const Decimals = 18

// LoadFile reads a balance map from a .csv or .json file.
func LoadFile(path string) (map[string]*big.Int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open balance file %s", path)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		return ParseJSON(f)
	default:
		return nil, errors.Errorf("unsupported balance file type %q (expected .csv or .json)", filepath.Ext(path))
	}
}

// ParseCSV reads "address,amount" lines. Amounts are whole-token decimals
// and are scaled to base units.
func ParseCSV(r io.Reader) (map[string]*big.Int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	balances := make(map[string]*big.Int)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read csv")
		}

		line, _ := reader.FieldPos(0)
		address := strings.TrimSpace(record[0])
		if address == "" || !strings.HasPrefix(address, "0x") {
			continue
		}
		if len(record) < 2 {
			return nil, errors.Errorf("line %d: missing amount for %s", line, address)
		}
		if _, dup := balances[address]; dup {
			return nil, errors.Wrapf(merkle.ErrDuplicateEntry, "line %d: %s", line, address)
		}

		amount, err := ParseEther(record[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid amount for %s", line, address)
		}
		balances[address] = amount
	}
	return balances, nil
}

// ParseJSON reads an {"address": "amount"} object with amounts in base units.
func ParseJSON(r io.Reader) (map[string]*big.Int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode balance map")
	}

	balances := make(map[string]*big.Int, len(raw))
	for address, v := range raw {
		var text string
		switch value := v.(type) {
		case string:
			text = value
		case json.Number:
			text = value.String()
		default:
			return nil, errors.Errorf("amount for %s must be a string or integer, got %T", address, v)
		}

		amount, err := ParseAmount(text)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid amount for %s", address)
		}
		balances[address] = amount
	}
	return balances, nil
}

// ParseAmount parses an integer amount in base units, either decimal or
// 0x-prefixed hex.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	if digits == "" {
		return nil, errors.Errorf("empty amount %q", s)
	}

	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.Errorf("malformed amount %q", s)
	}
	return v, nil
}

// ParseEther converts a whole-token decimal string ("12", "0.5") to base
// units with Decimals fractional digits. More fractional digits than that
// are rejected rather than rounded.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, errors.Errorf("empty amount")
	}
	if len(frac) > Decimals {
		return nil, errors.Errorf("amount %q has more than %d decimals", s, Decimals)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, errors.Errorf("malformed amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}

	v, ok := new(big.Int).SetString(whole+frac+strings.Repeat("0", Decimals-len(frac)), 10)
	if !ok {
		return nil, errors.Errorf("malformed amount %q", s)
	}
	if negative {
		v.Neg(v)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
