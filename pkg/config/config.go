package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the distributor tools
const (
	EnvStoreType      = "DISTRIBUTOR_STORE_TYPE"
	EnvDataPath       = "DISTRIBUTOR_DATA_PATH"
	EnvRedisAddress   = "DISTRIBUTOR_REDIS_ADDRESS"
	EnvRedisPassword  = "DISTRIBUTOR_REDIS_PASSWORD"
	EnvRedisDB        = "DISTRIBUTOR_REDIS_DB"
	EnvRedisKeyPrefix = "DISTRIBUTOR_REDIS_KEY_PREFIX"
	EnvNetwork        = "DISTRIBUTOR_NETWORK"
	EnvNetworks       = "DISTRIBUTOR_NETWORKS"
	EnvPort           = "DISTRIBUTOR_PORT"
	EnvRateLimit      = "DISTRIBUTOR_RATE_LIMIT"
	EnvRateBurst      = "DISTRIBUTOR_RATE_BURST"
	EnvAuditWorkers   = "DISTRIBUTOR_AUDIT_WORKERS"
	EnvVerbose        = "DISTRIBUTOR_VERBOSE"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumKovan   ChainId = 42
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumKovan   ChainName = "kovan"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumKovan:   ChainName_EthereumKovan,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumKovan:   ChainId_EthereumKovan,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// GetSupportedNetworks returns every network a distribution can be
// published for, in a stable order.
func GetSupportedNetworks() []ChainName {
	return []ChainName{
		ChainName_EthereumMainnet,
		ChainName_EthereumKovan,
		ChainName_EthereumSepolia,
		ChainName_EthereumAnvil,
	}
}

// GetSupportedNetworksString returns supported networks for CLI help
func GetSupportedNetworksString() string {
	names := make([]string, 0, len(ChainNameToId))
	for _, n := range GetSupportedNetworks() {
		names = append(names, fmt.Sprintf("%s (%d)", n, ChainNameToId[n]))
	}
	return strings.Join(names, ", ")
}

// ParseNetwork resolves a network name case-insensitively.
func ParseNetwork(name string) (ChainName, error) {
	n := ChainName(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := ChainNameToId[n]; !ok {
		return "", fmt.Errorf("unsupported network %q. Supported: %s", name, GetSupportedNetworksString())
	}
	return n, nil
}

// IsSupportedNetwork reports whether name is an exact supported network name.
func IsSupportedNetwork(name string) bool {
	_, ok := ChainNameToId[ChainName(name)]
	return ok
}

type StoreType string

const (
	StoreType_Memory StoreType = "memory"
	StoreType_File   StoreType = "file"
	StoreType_Badger StoreType = "badger"
	StoreType_Redis  StoreType = "redis"
)

// GetSupportedStoreTypes returns the store backends in a stable order.
func GetSupportedStoreTypes() []StoreType {
	return []StoreType{StoreType_Memory, StoreType_File, StoreType_Badger, StoreType_Redis}
}

func isSupportedStoreType(t StoreType) bool {
	for _, s := range GetSupportedStoreTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// Defaults shared by the CLI and tests
const (
	DefaultStoreType = StoreType_File
	DefaultDataPath  = "./distributions"
	DefaultRedisAddr = "localhost:6379"
	DefaultPort      = 8080
	DefaultRateLimit = 100.0
	DefaultRateBurst = 200
)

// StoreConfig selects and configures the distribution store
type StoreConfig struct {
	Type StoreType `json:"type"`

	// DataPath is the directory for the file and badger stores
	DataPath string `json:"data_path"`

	RedisAddress   string `json:"redis_address"`
	RedisPassword  string `json:"redis_password"`
	RedisDB        int    `json:"redis_db"`
	RedisKeyPrefix string `json:"redis_key_prefix"`
}

// Validate validates the store configuration
func (c *StoreConfig) Validate() error {
	var allErrors field.ErrorList
	root := field.NewPath("store")

	if !isSupportedStoreType(c.Type) {
		allErrors = append(allErrors, field.NotSupported(root.Child("type"), c.Type, GetSupportedStoreTypes()))
	}

	switch c.Type {
	case StoreType_File, StoreType_Badger:
		if c.DataPath == "" {
			allErrors = append(allErrors, field.Required(root.Child("dataPath"), "dataPath is required for the "+string(c.Type)+" store"))
		}
	case StoreType_Redis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(root.Child("redisAddress"), "redisAddress is required for the redis store"))
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(root.Child("redisDB"), c.RedisDB, "must be between 0-15"))
		}
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// LookupServerConfig represents the configuration of the claim lookup server
type LookupServerConfig struct {
	Port int `json:"port"`

	// Networks lists the networks the server answers for
	Networks []ChainName `json:"networks"`

	// RateLimit is the sustained requests per second across all clients,
	// RateBurst the bucket size. A zero RateLimit disables limiting.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	Debug bool `json:"debug"`
}

// Validate validates the lookup server configuration
func (c *LookupServerConfig) Validate() error {
	var allErrors field.ErrorList
	root := field.NewPath("server")

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(root.Child("port"), c.Port, "must be between 1-65535"))
	}

	if len(c.Networks) == 0 {
		allErrors = append(allErrors, field.Required(root.Child("networks"), "at least one network is required"))
	}
	seen := make(map[ChainName]bool, len(c.Networks))
	for i, n := range c.Networks {
		path := root.Child("networks").Index(i)
		if !IsSupportedNetwork(string(n)) {
			allErrors = append(allErrors, field.NotSupported(path, n, GetSupportedNetworks()))
			continue
		}
		if seen[n] {
			allErrors = append(allErrors, field.Duplicate(path, n))
		}
		seen[n] = true
	}

	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(root.Child("rateLimit"), c.RateLimit, "must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		allErrors = append(allErrors, field.Invalid(root.Child("rateBurst"), c.RateBurst, "must be at least 1 when rate limiting"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ServesNetwork reports whether the server is configured for the network.
func (c *LookupServerConfig) ServesNetwork(name string) bool {
	for _, n := range c.Networks {
		if string(n) == name {
			return true
		}
	}
	return false
}
