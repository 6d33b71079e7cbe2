// Command transducerd runs the Gray Logic transducer registry.
//
// It keeps named sensors and actuators in SQLite, ingests readings and
// trigger events from MQTT, mirrors history into InfluxDB, and serves the
// registry over REST and WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-transducers/migrations"

	"github.com/nerrad567/gray-logic-transducers/internal/api"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

// Version information, set at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
// Deferred closes unwind in reverse start order.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting transducerd", "version", version, "commit", commit, "build_date", date)

	cfg, source, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "source", source, "site", cfg.Site.ID)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	registry := transducer.NewRegistry(transducer.NewSQLiteRepository(db.DB))
	registry.SetLogger(log.Component("registry"))
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading transducer registry: %w", refreshErr)
	}
	log.Info("transducer registry initialised", "transducers", registry.Count())

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Registry: registry,
		Database: db,
		Version:  version,
	}

	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		registry.AddSink(transducer.NewHistoryWriter(influxClient))
		deps.InfluxDB = influxClient
		deps.History = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", influxClient.Bucket())
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		deps.MQTT = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		if cfg.Transducers.Ingest {
			ingest := transducer.NewIngest(registry, mqttClient, transducer.IngestConfig{
				QoS:              byte(cfg.MQTT.QoS), //nolint:gosec // validated 0..2
				PublishSetPoints: cfg.Transducers.PublishSetPoints,
			})
			ingest.SetLogger(log.Component("ingest"))
			ingest.SetObserver(api.ObserveIngest)
			registry.AddSink(ingest)
			if startErr := ingest.Start(ctx); startErr != nil {
				return fmt.Errorf("starting MQTT ingest: %w", startErr)
			}
			defer func() {
				if stopErr := ingest.Stop(); stopErr != nil {
					log.Warn("error stopping MQTT ingest", "error", stopErr)
				}
			}()
			log.Info("MQTT ingest started", "topic", mqtt.Topics{}.AllTransducerData())
		}
	} else {
		log.Info("MQTT disabled, ingest and set point publishing off")
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if retain := cfg.Transducers.GetRetention(); retain > 0 {
		retention := &retentionWorker{
			pruner:    registry,
			retention: retain,
			interval:  cfg.Transducers.GetPruneInterval(),
			logger:    log.Component("retention"),
			observe:   api.ObservePrune,
		}
		go retention.run(ctx)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// loadConfig reads GRAYLOGIC_CONFIG or the default path. When neither
// names an existing file, built-in defaults with environment overrides
// are used.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && os.Getenv("GRAYLOGIC_CONFIG") == "" {
			cfg, defErr := config.Default()
			return cfg, "defaults", defErr
		}
		return nil, path, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}

// getConfigPath returns GRAYLOGIC_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
