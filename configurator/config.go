package configurator

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/tether/types"
)

// DefaultSeeds is used when neither the file nor the environment provides seeds.
var DefaultSeeds = []string{"127.0.0.1"}

// Config is the file representation of a configurator.
//
// Example YAML:
//
//	seeds: ["10.0.0.1", "10.0.0.2"]
//	local_dc: dc1
//	credentials:
//	  username: app
//	  password: secret
//	pooling:
//	  num_conns: 4
//	socket:
//	  connect_timeout: 5s
//	  read_timeout: 12s
//	query:
//	  consistency: LOCAL_QUORUM
//	  page_size: 500
//	metrics:
//	  reporting_enabled: true
type Config struct {
	Seeds       []string              `yaml:"seeds"`
	LocalDC     string                `yaml:"local_dc"`
	Credentials *types.Credentials    `yaml:"credentials"`
	Pooling     *types.PoolingOptions `yaml:"pooling"`
	Socket      *types.SocketOptions  `yaml:"socket"`
	Query       *types.QueryOptions   `yaml:"query"`
	Metrics     *types.MetricsOptions `yaml:"metrics"`

	// LoadBalancing overrides the policy derived from LocalDC.
	LoadBalancing types.LoadBalancingPolicy `yaml:"-"`
}

// Load reads a YAML configuration file.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: The parsed configuration
//   - error: Read or parse error, wrapping types.ErrInvalidConfig on bad YAML
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}

	return cfg, nil
}

// seedsUnset reports whether seeds may be replaced by the environment.
func (c *Config) seedsUnset() bool {
	return len(c.Seeds) == 0 || slices.Equal(c.Seeds, DefaultSeeds)
}
