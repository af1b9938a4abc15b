package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/directive"
	"github.com/nerrad567/gray-logic-alexa/internal/api"
	"github.com/nerrad567/gray-logic-alexa/internal/audit"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/observability"
)

// shutdownTimeout bounds the whole teardown after a signal.
const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Alexa skill HTTP endpoint",
		Long: `Run the Alexa skill HTTP endpoint until interrupted.

Directives are accepted on POST /alexa/v3/directive. Every outcome is
recorded to the audit log and, when enabled, to Prometheus, InfluxDB and
MQTT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.configPath)
		},
	}
}

// runServe builds every component, starts the API server and blocks until
// ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML file path, or "" for defaults plus environment
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runServe(ctx context.Context, configPath string) (err error) {
	log := logging.Default()
	log.Info("starting alexabridge", "version", version, "commit", commit, "build_date", date)

	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log.Info("configuration loaded", "path", configPath, "settings_backend", cfg.Settings.Backend)

	shutdown := observability.NewShutdownCoordinator(log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := shutdown.Shutdown(sctx); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	checks := make(map[string]api.HealthChecker)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	shutdown.Register("database", func(context.Context) error { return db.Close() })
	checks["database"] = db
	log.Info("database ready", "path", cfg.Database.Path)

	backend, err := openSettings(ctx, cfg, db)
	if err != nil {
		return err
	}
	if backend.close != nil {
		shutdown.Register("settings", func(context.Context) error { return backend.close() })
	}
	if backend.health != nil {
		checks["settings"] = healthFunc(backend.health)
	}

	if cfg.Tracing.Enabled {
		tp, tracerErr := observability.InitTracer(ctx, observability.TracerConfig{
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRatio:    cfg.Tracing.SampleRatio,
			ServiceName:    logging.ServiceName,
			ServiceVersion: version,
		})
		if tracerErr != nil {
			return fmt.Errorf("initialising tracing: %w", tracerErr)
		}
		shutdown.Register("tracer", tp.Shutdown)
		log.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	recorder, err := buildRecorder(ctx, cfg, db, metrics, log, checks, shutdown)
	if err != nil {
		return err
	}

	client, err := newOpenHABClient(cfg)
	if err != nil {
		return err
	}

	var observer directive.Observer
	var auditRepo audit.Repository
	if recorder != nil {
		observer = recorder
		recorder.Start()
		shutdown.Register("recorder", recorder.Close)
	}
	if cfg.Audit.Enabled {
		auditRepo = audit.NewSQLiteRepository(db.DB)
	}

	server, err := api.New(api.Deps{
		Config:        cfg.API,
		Metrics:       cfg.Metrics,
		Logger:        log.Component("api"),
		Dispatcher:    newDispatcher(client, backend.store, observer, log),
		AuditRepo:     auditRepo,
		Observability: metrics,
		Checks:        checks,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	shutdown.Register("api", func(context.Context) error { return server.Close() })

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", server.Addr(), "openhab", cfg.OpenHAB.BaseURL)
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// buildRecorder assembles the directive audit fan-out. It returns nil when
// no sink is enabled. Connected MQTT and InfluxDB clients are added to
// checks and registered for shutdown.
func buildRecorder(ctx context.Context, cfg *config.Config, db *database.DB, metrics *observability.Metrics,
	log *logging.Logger, checks map[string]api.HealthChecker, shutdown *observability.ShutdownCoordinator) (*audit.Recorder, error) {
	recorder := audit.NewRecorder(cfg.Audit.BufferSize)
	recorder.SetLogger(log.Component("audit"))
	sinks := 0

	if cfg.Audit.Enabled {
		recorder.AddSink("audit_log", audit.RepositorySink(audit.NewSQLiteRepository(db.DB)))
		sinks++
	}

	if metrics != nil {
		recorder.AddSink("prometheus", audit.MetricsSink(metrics))
		recorder.OnDrop(metrics.DroppedEvent)
		sinks++
	}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		shutdown.Register("mqtt", func(context.Context) error { return mqttClient.Close() })
		checks["mqtt"] = mqttClient
		recorder.AddSink("mqtt", audit.MQTTSink(mqttClient, mqttClient.Topics()))
		sinks++
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		shutdown.Register("influxdb", func(context.Context) error { return influxClient.Close() })
		checks["influxdb"] = influxClient
		recorder.AddSink("influxdb", audit.InfluxSink(influxClient))
		sinks++
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "org", cfg.InfluxDB.Org, "bucket", cfg.InfluxDB.Bucket)
	}

	if sinks == 0 {
		return nil, nil
	}
	return recorder, nil
}

// healthFunc adapts a function to api.HealthChecker.
type healthFunc func(context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
