package persistence

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrClosed is returned by every store operation after Close.
var ErrClosed = errors.New("persistence layer is closed")

var networkNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateNetworkName rejects names that cannot be used as a storage key or
// file name. Stores call it before touching the backend.
func ValidateNetworkName(network string) error {
	if !networkNamePattern.MatchString(network) {
		return fmt.Errorf("invalid network name %q", network)
	}
	return nil
}

// ValidateDistributionIndex rejects indices below 1.
func ValidateDistributionIndex(distributionIndex int) error {
	if distributionIndex < 1 {
		return fmt.Errorf("distribution index must be >= 1, got %d", distributionIndex)
	}
	return nil
}
