package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arloliu/tether"
	"github.com/arloliu/tether/adapter/cql"
	v1 "github.com/arloliu/tether/adapter/cql/v1"
	v2 "github.com/arloliu/tether/adapter/cql/v2"
	"github.com/arloliu/tether/configurator"
	zaplog "github.com/arloliu/tether/contrib/logging/zap"
	"github.com/arloliu/tether/contrib/metrics/prom"
	"github.com/arloliu/tether/contrib/metrics/vm"
	"github.com/arloliu/tether/loop"
	"github.com/arloliu/tether/metrics"
	"github.com/arloliu/tether/report"
	"github.com/arloliu/tether/types"
)

func runProbe(parent context.Context, logger *zap.Logger, config *config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zaplog.New(logger)
	driver, policyOpts := newDriver(config, log)

	conf, err := newConfigurator(config, policyOpts)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	vmCollector := vm.New(vm.WithRegistry(registry))
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(prom.New(registry))

	sessionOpts := []tether.Option{
		tether.WithLogger(log),
		tether.WithGaugeRegistry(vmCollector),
		tether.WithInitTimeout(config.initTimeout),
	}

	if config.natsURL != "" {
		kv, closeNATS, err := openBucket(ctx, config)
		if err != nil {
			return err
		}
		defer closeNATS()

		reporter, err := report.NewNATSReporter(kv, registry,
			report.WithInterval(config.reportInterval),
			report.WithLogger(log))
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, tether.WithReporter(reporter))

		go followReports(ctx, kv, log, logger)
	}

	session, err := tether.NewSession(driver, conf, sessionOpts...)
	if err != nil {
		return err
	}

	server := serveMetrics(config.metricsAddress, vmCollector, promRegistry, logger)

	if err := session.WaitReady(ctx); err != nil {
		logger.Error("session failed to initialize", zap.Error(err))
		shutdown(session, server, logger)

		return err
	}
	logger.Info("session ready",
		zap.String("session", session.ID().String()),
		zap.String("cluster", session.Cluster().Name()))

	if config.watchCluster {
		go watchClusterConfig(ctx, config, session, policyOpts, log, logger)
	}

	l := loop.New(loop.WithName("probe"), loop.WithLogger(log))
	l.Start(ctx)

	ticker := time.NewTicker(config.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			l.Stop()
			shutdown(session, server, logger)

			return nil
		case <-ticker.C:
			err := l.Submit(ctx, func(ctx context.Context) {
				probe(ctx, session, config.query, logger)
			})
			if err != nil {
				logger.Warn("failed to submit probe", zap.Error(err))
			}
		}
	}
}

// probe runs on the loop, so the callback does too.
func probe(ctx context.Context, session *tether.Session, query string, logger *zap.Logger) {
	started := time.Now()

	err := session.ExecuteQueryAsync(ctx, query, tether.OnResult(
		func(rs *types.ResultSet) {
			logger.Debug("probe succeeded",
				zap.Int("rows", rs.Len()),
				zap.Duration("latency", time.Since(started)))
		},
		func(err error) {
			var opErr *types.OperationError
			if errors.As(err, &opErr) {
				logger.Warn("probe failed", zap.String("operation", opErr.Operation), zap.Error(err))
				return
			}
			logger.Warn("probe failed", zap.Error(err))
		},
	))
	if err != nil {
		logger.Warn("probe not issued", zap.Error(err))
	}
}

func newDriver(config *config, log types.Logger) (cql.Driver, []configurator.Option) {
	if config.driver == "v2" {
		factory := func(localDC string) types.LoadBalancingPolicy { return v2.DCAwareRoundRobin(localDC) }

		return v2.NewDriver(v2.WithKeyspace(config.keyspace), v2.WithLogger(log)),
			[]configurator.Option{configurator.WithPolicyFactory(factory)}
	}

	return v1.NewDriver(v1.WithKeyspace(config.keyspace), v1.WithLogger(log)), nil
}

func newConfigurator(config *config, opts []configurator.Option) (*configurator.Static, error) {
	if config.clusterConfig != "" {
		conf, err := configurator.FromFile(config.clusterConfig, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load cluster config: %w", err)
		}

		return conf, nil
	}

	return configurator.FromEnv(configurator.Config{}, opts...)
}

func openBucket(ctx context.Context, config *config) (jetstream.KeyValue, func(), error) {
	nc, err := nats.Connect(config.natsURL, nats.Name("tether-probe"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	kv, err := js.KeyValue(ctx, config.natsBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  config.natsBucket,
			History: 4,
		})
	}
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to open bucket %s: %w", config.natsBucket, err)
	}

	return kv, nc.Close, nil
}

// followReports logs the snapshots of every probe sharing the bucket.
func followReports(ctx context.Context, kv jetstream.KeyValue, log types.Logger, logger *zap.Logger) {
	w, err := report.NewSnapshotWatcher(kv, report.WithWatchLogger(log))
	if err != nil {
		logger.Warn("failed to follow reports", zap.Error(err))
		return
	}
	defer func() { _ = w.Close() }()

	for u := range w.Watch(ctx) {
		if u.Removed {
			logger.Debug("reporter gone", zap.String("key", u.Key))
			continue
		}
		up, _ := u.Snapshot.Value("up-hosts")
		logger.Debug("peer snapshot",
			zap.String("key", u.Key),
			zap.String("cluster", u.Snapshot.Cluster),
			zap.Any("upHosts", up))
	}
}

func watchClusterConfig(
	ctx context.Context,
	config *config,
	session *tether.Session,
	opts []configurator.Option,
	log types.Logger,
	logger *zap.Logger,
) {
	watcher := configurator.NewWatcher(config.clusterConfig,
		configurator.WithWatchLogger(log),
		configurator.WithConfiguratorOptions(opts...))

	err := watcher.Run(ctx, func(conf *configurator.Static) {
		initCtx, cancel := context.WithTimeout(ctx, config.initTimeout)
		defer cancel()

		if err := session.Initialize(initCtx, conf); err != nil {
			logger.Error("failed to reinitialize session", zap.Error(err))
			return
		}
		logger.Info("session reinitialized", zap.String("cluster", session.Cluster().Name()))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("cluster config watcher stopped", zap.Error(err))
	}
}

func serveMetrics(addr string, vmCollector *vm.Collector, promRegistry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", vmCollector.Handler)
	mux.Handle("/metrics/prometheus", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return server
}

func shutdown(session *tether.Session, server *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if f, err := session.CloseAsync(false); err == nil {
		select {
		case <-f.Done():
		case <-ctx.Done():
			logger.Warn("graceful close timed out, forcing")
			<-f.Force().Done()
		}
	} else if !errors.Is(err, types.ErrNotInitialized) {
		logger.Warn("failed to close session", zap.Error(err))
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("failed to stop metrics server", zap.Error(err))
	}
}
