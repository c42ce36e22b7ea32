package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// HexBig marshals a non-negative integer as 0x-prefixed hex with an even
// number of digits ("0x00", "0x0de0b6b3a7640000"), the form published records
// use. Unmarshaling accepts leading zeros.
type HexBig big.Int

// NewHexBig wraps a copy of b.
func NewHexBig(b *big.Int) *HexBig {
	return (*HexBig)(new(big.Int).Set(b))
}

// ToInt returns the value as a big.Int. The result aliases h.
func (h *HexBig) ToInt() *big.Int {
	return (*big.Int)(h)
}

// String returns the hex encoding of h.
func (h *HexBig) String() string {
	if h == nil {
		return "<nil>"
	}
	text, err := h.MarshalText()
	if err != nil {
		return (*big.Int)(h).String()
	}
	return string(text)
}

// MarshalText implements encoding.TextMarshaler.
func (h HexBig) MarshalText() ([]byte, error) {
	b := (*big.Int)(&h)
	if b.Sign() < 0 {
		return nil, fmt.Errorf("cannot encode negative value %s as hex", b)
	}
	raw := b.Bytes()
	if len(raw) == 0 {
		return []byte("0x00"), nil
	}
	return []byte("0x" + hex.EncodeToString(raw)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HexBig) UnmarshalText(input []byte) error {
	s := string(input)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex number %q lacks 0x prefix", s)
	}
	digits := s[2:]
	if digits == "" {
		return fmt.Errorf("hex number %q has no digits", s)
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return fmt.Errorf("invalid hex digit %q in %q", c, s)
		}
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return fmt.Errorf("invalid hex number %q", s)
	}
	*h = HexBig(*v)
	return nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
