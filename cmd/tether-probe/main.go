// Command tether-probe keeps a tether session open against a Cassandra
// cluster, runs a query on an event loop at a fixed interval and serves the
// session gauges over HTTP.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	zaplog "github.com/arloliu/tether/contrib/logging/zap"
)

var rootCmd = &cobra.Command{
	Use:   "tether-probe",
	Short: "Probe a Cassandra cluster through a tether session",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		level := zap.NewAtomicLevel()
		logger := zaplog.NewConsole(level)
		defer func() { _ = logger.Sync() }()

		config, err := readConfig(logger)
		if err != nil {
			return err
		}

		parsedLevel, err := zapcore.ParseLevel(config.logLevel)
		if err != nil {
			logger.Warn("invalid log level, using info", zap.String("level", config.logLevel), zap.Error(err))
			parsedLevel = zapcore.InfoLevel
		}
		level.SetLevel(parsedLevel)

		return runProbe(cmd.Context(), logger, config)
	},
}

var cfgFile string
var clusterCfgFile string
var watchClusterCfg bool

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "specifies a probe config file to load")
	rootCmd.Flags().StringVar(&clusterCfgFile, "cluster-config", "", "specifies a cluster YAML file for the session configurator")
	rootCmd.Flags().BoolVar(&watchClusterCfg, "watch-cluster-config", false, "reinitialize the session when the cluster config file changes")

	configFlags := pflag.NewFlagSet("", pflag.ContinueOnError)
	configFlags.String("log-level", "info", "the log level to run at")
	configFlags.String("driver", "v1", "the gocql driver to use (v1 or v2)")
	configFlags.String("keyspace", "", "the keyspace sessions connect to")
	configFlags.String("query", "SELECT release_version FROM system.local", "the query to probe with")
	configFlags.Duration("interval", 5*time.Second, "the time between probe queries")
	configFlags.Duration("init-timeout", 30*time.Second, "the timeout of one session initialization")
	configFlags.String("metrics-address", ":9095", "the address serving /metrics")
	configFlags.String("nats-url", "", "the NATS server to report gauge snapshots to")
	configFlags.String("nats-bucket", "tether-metrics", "the key-value bucket for gauge snapshots")
	configFlags.Duration("report-interval", 10*time.Second, "the time between gauge snapshots")
	rootCmd.Flags().AddFlagSet(configFlags)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("tether")
	viper.AutomaticEnv()

	_ = viper.BindPFlags(configFlags)
}

type config struct {
	logLevel       string
	driver         string
	keyspace       string
	query          string
	interval       time.Duration
	initTimeout    time.Duration
	metricsAddress string
	natsURL        string
	natsBucket     string
	reportInterval time.Duration
	clusterConfig  string
	watchCluster   bool
}

func readConfig(logger *zap.Logger) (*config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", cfgFile, err)
		}
		logger.Info("loaded probe config", zap.String("file", viper.ConfigFileUsed()))
	}

	c := &config{
		logLevel:       viper.GetString("log-level"),
		driver:         viper.GetString("driver"),
		keyspace:       viper.GetString("keyspace"),
		query:          viper.GetString("query"),
		interval:       viper.GetDuration("interval"),
		initTimeout:    viper.GetDuration("init-timeout"),
		metricsAddress: viper.GetString("metrics-address"),
		natsURL:        viper.GetString("nats-url"),
		natsBucket:     viper.GetString("nats-bucket"),
		reportInterval: viper.GetDuration("report-interval"),
		clusterConfig:  clusterCfgFile,
		watchCluster:   watchClusterCfg,
	}

	if c.driver != "v1" && c.driver != "v2" {
		return nil, fmt.Errorf("unknown driver %q", c.driver)
	}
	if c.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", c.interval)
	}
	if c.watchCluster && c.clusterConfig == "" {
		return nil, fmt.Errorf("--watch-cluster-config requires --cluster-config")
	}

	logger.Info("parsed probe configuration",
		zap.String("driver", c.driver),
		zap.String("keyspace", c.keyspace),
		zap.String("query", c.query),
		zap.Duration("interval", c.interval),
		zap.String("metricsAddress", c.metricsAddress),
		zap.String("natsURL", c.natsURL),
		zap.String("clusterConfig", c.clusterConfig),
		zap.Bool("watchCluster", c.watchCluster),
	)

	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
