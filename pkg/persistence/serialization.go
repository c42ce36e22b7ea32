package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// listIndent matches the layout of the published distribution files.
const listIndent = "    "

// MarshalDistribution serializes a Distribution to compact JSON bytes.
func MarshalDistribution(d *types.Distribution) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot marshal nil Distribution")
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Distribution to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalDistribution deserializes a Distribution from JSON bytes.
func UnmarshalDistribution(data []byte) (*types.Distribution, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var d types.Distribution
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Distribution: %w", err)
	}
	if d.Recipients == nil {
		d.Recipients = map[string]*types.Recipient{}
	}

	return &d, nil
}

// MarshalDistributionList serializes a network's records as the indented
// JSON array the distribution files are published as.
func MarshalDistributionList(list []*types.Distribution) ([]byte, error) {
	if list == nil {
		list = []*types.Distribution{}
	}
	for i, d := range list {
		if d == nil {
			return nil, fmt.Errorf("cannot marshal nil Distribution at position %d", i)
		}
	}

	data, err := json.MarshalIndent(list, "", listIndent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Distribution list to JSON: %w", err)
	}

	return append(data, '\n'), nil
}

// UnmarshalDistributionList deserializes a JSON array of distributions.
// Empty input is an empty list.
func UnmarshalDistributionList(data []byte) ([]*types.Distribution, error) {
	if len(data) == 0 {
		return []*types.Distribution{}, nil
	}

	var list []*types.Distribution
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Distribution list: %w", err)
	}
	for i, d := range list {
		if d == nil {
			return nil, fmt.Errorf("null Distribution at position %d", i)
		}
		if d.Recipients == nil {
			d.Recipients = map[string]*types.Recipient{}
		}
	}
	if list == nil {
		list = []*types.Distribution{}
	}

	return list, nil
}
