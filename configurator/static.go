package configurator

import (
	"slices"
	"sync"

	v1 "github.com/arloliu/tether/adapter/cql/v1"
	"github.com/arloliu/tether/types"
)

// PolicyFactory builds the load balancing policy for a local datacenter.
type PolicyFactory func(localDC string) types.LoadBalancingPolicy

// DefaultPolicyFactory returns gocql's DC-aware round robin policy.
func DefaultPolicyFactory(localDC string) types.LoadBalancingPolicy {
	return v1.DCAwareRoundRobin(localDC)
}

// Option configures a Static configurator.
type Option func(*Static)

// WithPolicyFactory sets how LocalDC is turned into a policy. Use it with
// drivers other than adapter/cql/v1.
func WithPolicyFactory(factory PolicyFactory) Option {
	return func(s *Static) {
		s.policyFactory = factory
	}
}

// Static is a configurator with fixed settings.
//
// It is ready as soon as it is created; OnReady callbacks run on a new
// goroutine with a nil error.
type Static struct {
	cfg           Config
	policyFactory PolicyFactory

	once   sync.Once
	policy types.LoadBalancingPolicy
}

// New creates a configurator from cfg as given, without environment
// overrides or defaults.
func New(cfg Config, opts ...Option) *Static {
	s := &Static{
		cfg:           cfg,
		policyFactory: DefaultPolicyFactory,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FromEnv applies environment overrides to cfg, falls back to DefaultSeeds,
// and returns the resulting configurator.
//
// Parameters:
//   - cfg: Base configuration; fields already set win over the environment
//   - opts: Optional configuration
//
// Returns:
//   - *Static: The configurator
//   - error: Environment decoding error
func FromEnv(cfg Config, opts ...Option) (*Static, error) {
	cfg.Seeds = slices.Clone(cfg.Seeds)
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = slices.Clone(DefaultSeeds)
	}

	return New(cfg, opts...), nil
}

// FromFile loads path, applies environment overrides and returns the configurator.
func FromFile(path string, opts ...Option) (*Static, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	return FromEnv(cfg, opts...)
}

// Config returns a copy of the configuration.
func (s *Static) Config() Config {
	return s.cfg
}

// Seeds implements tether.Configurator.
func (s *Static) Seeds() []string {
	return slices.Clone(s.cfg.Seeds)
}

// LoadBalancingPolicy implements tether.Configurator.
func (s *Static) LoadBalancingPolicy() types.LoadBalancingPolicy {
	if s.cfg.LoadBalancing != nil {
		return s.cfg.LoadBalancing
	}
	if s.cfg.LocalDC == "" {
		return nil
	}

	s.once.Do(func() {
		s.policy = s.policyFactory(s.cfg.LocalDC)
	})

	return s.policy
}

// PoolingOptions implements tether.Configurator.
func (s *Static) PoolingOptions() *types.PoolingOptions { return s.cfg.Pooling }

// SocketOptions implements tether.Configurator.
func (s *Static) SocketOptions() *types.SocketOptions { return s.cfg.Socket }

// QueryOptions implements tether.Configurator.
func (s *Static) QueryOptions() *types.QueryOptions { return s.cfg.Query }

// MetricsOptions implements tether.Configurator.
func (s *Static) MetricsOptions() *types.MetricsOptions { return s.cfg.Metrics }

// AuthProvider implements tether.Configurator.
func (s *Static) AuthProvider() *types.Credentials { return s.cfg.Credentials }

// OnReady implements tether.Configurator.
func (s *Static) OnReady(fn func(error)) {
	go fn(nil)
}
