package merkle

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CanonicalAddress parses an account address and returns its 20-byte form.
//
// The "0x" prefix is optional. All-lowercase and all-uppercase hex is accepted
// as is; mixed-case input must carry a valid EIP-55 checksum.
func CanonicalAddress(s string) (common.Address, error) {
	body := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(body) != 2*common.AddressLength || !common.IsHexAddress(body) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	addr := common.HexToAddress(body)
	if hasMixedCase(body) && "0x"+body != addr.Hex() {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// ChecksumAddress returns the canonical text form of s.
func ChecksumAddress(s string) (string, error) {
	addr, err := CanonicalAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// AddressFromBytes converts a raw byte slice to an address, refusing anything
// that is not exactly 20 bytes wide.
func AddressFromBytes(b []byte) (common.Address, error) {
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: address is %d bytes, want %d", ErrEncoding, len(b), common.AddressLength)
	}
	return common.BytesToAddress(b), nil
}

func hasMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
