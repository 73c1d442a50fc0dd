package configurator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"

	"github.com/arloliu/tether/types"
)

// Environment variables read by ApplyEnv.
const (
	EnvSeeds    = "CASSANDRA_SEEDS"
	EnvLocalDC  = "CASSANDRA_LOCAL_DC"
	EnvUsername = "CASSANDRA_USERNAME"
	EnvPassword = "CASSANDRA_PASSWORD"
)

// envOverrides mirrors the supported environment variables.
type envOverrides struct {
	Seeds    string `env:"CASSANDRA_SEEDS"`
	LocalDC  string `env:"CASSANDRA_LOCAL_DC"`
	Username string `env:"CASSANDRA_USERNAME"`
	Password string `env:"CASSANDRA_PASSWORD"`
}

// ApplyEnv fills unset fields from the environment.
//
// Each variable only applies when the corresponding setting is still unset:
//   - CASSANDRA_SEEDS: pipe-delimited seeds, when seeds are empty or DefaultSeeds
//   - CASSANDRA_LOCAL_DC: when neither LocalDC nor LoadBalancing is set
//   - CASSANDRA_USERNAME / CASSANDRA_PASSWORD: when no credentials are set,
//     and only if both are non-empty
//
// Returns:
//   - error: Decoding error from the environment
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("%w: decode environment: %w", types.ErrInvalidConfig, err)
	}

	if env.Seeds != "" && c.seedsUnset() {
		if seeds := splitSeeds(env.Seeds); len(seeds) > 0 {
			c.Seeds = seeds
		}
	}

	if env.LocalDC != "" && c.LocalDC == "" && c.LoadBalancing == nil {
		c.LocalDC = env.LocalDC
	}

	if c.Credentials == nil && env.Username != "" && env.Password != "" {
		c.Credentials = &types.Credentials{Username: env.Username, Password: env.Password}
	}

	return nil
}

func splitSeeds(raw string) []string {
	parts := strings.Split(raw, "|")
	seeds := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			seeds = append(seeds, p)
		}
	}

	return seeds
}
