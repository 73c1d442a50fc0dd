package types

import "time"

// LoadBalancingPolicy is an opaque host selection policy handed to the driver.
//
// The session never inspects a policy beyond its name; the driver adapter
// decides what concrete policies it accepts.
type LoadBalancingPolicy interface {
	// PolicyName returns a short name used in configuration snapshots.
	PolicyName() string
}

// PoolingOptions configures per-host connection pooling.
type PoolingOptions struct {
	// NumConns is the number of connections per host. Zero keeps the driver default.
	NumConns int `yaml:"num_conns" json:"numConns"`

	// MaxPreparedStmts caps the prepared statement cache. Zero keeps the driver default.
	MaxPreparedStmts int `yaml:"max_prepared_stmts" json:"maxPreparedStmts"`

	// MaxRoutingKeyInfo caps the routing key cache. Zero keeps the driver default.
	MaxRoutingKeyInfo int `yaml:"max_routing_key_info" json:"maxRoutingKeyInfo"`
}

// SocketOptions configures connection-level timeouts.
type SocketOptions struct {
	// Port is the native protocol port. Zero keeps the driver default (9042).
	Port int `yaml:"port" json:"port"`

	// ConnectTimeout bounds the initial connection handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connectTimeout"`

	// ReadTimeout bounds each request round-trip.
	ReadTimeout time.Duration `yaml:"read_timeout" json:"readTimeout"`

	// KeepAlive sets the TCP keep-alive period. Zero disables it.
	KeepAlive time.Duration `yaml:"keep_alive" json:"keepAlive"`
}

// QueryOptions configures statement defaults.
type QueryOptions struct {
	// Consistency is the default consistency. Nil keeps the driver default.
	Consistency *Consistency `yaml:"consistency" json:"consistency"`

	// SerialConsistency is the default serial consistency for conditional updates.
	// Nil keeps the driver default.
	SerialConsistency *Consistency `yaml:"serial_consistency" json:"serialConsistency"`

	// PageSize is the default fetch size. Zero keeps the driver default.
	PageSize int `yaml:"page_size" json:"pageSize"`

	// DefaultIdempotence marks statements idempotent unless overridden.
	DefaultIdempotence bool `yaml:"default_idempotence" json:"defaultIdempotence"`

	// DefaultTimestamp enables client-side timestamps.
	DefaultTimestamp bool `yaml:"default_timestamp" json:"defaultTimestamp"`
}

// MetricsOptions configures driver-side metrics and external reporting.
type MetricsOptions struct {
	// ReportingEnabled starts the configured Reporter after each successful connect.
	ReportingEnabled bool `yaml:"reporting_enabled" json:"reportingEnabled"`
}

// Credentials carries plain-text authentication.
type Credentials struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Complete reports whether both username and password are present.
func (c *Credentials) Complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}
