// Heatmiser Bridge - UH1 to MQTT
//
// This is the main entry point for the Heatmiser bridge. It connects a
// Heatmiser UH1 wiring centre (RS485, V3 protocol) to an MQTT broker,
// publishing zone climate state and accepting setpoint, mode, and hot
// water commands — including Home Assistant discovery.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/heatmiser-bridge/migrations"

	"github.com/nerrad567/heatmiser-bridge/internal/api"
	"github.com/nerrad567/heatmiser-bridge/internal/bridges/heatmiser"
	"github.com/nerrad567/heatmiser-bridge/internal/history"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/config"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/database"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/heatmiser-bridge/internal/uh1"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Heatmiser bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open state history database (optional)
	var db *database.DB
	var repo *history.Repository
	if cfg.Database.Enabled {
		db, err = database.Open(database.Config{
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
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		repo = history.NewRepository(db, cfg.Database.MaxHistoryRows)
	} else {
		log.Info("state history disabled")
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.ID)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the UH1 bus
	conn, err := uh1.Dial(uh1.Config{
		Mode:        cfg.UH1.Mode,
		Device:      cfg.UH1.Device,
		Host:        cfg.UH1.Host,
		Port:        cfg.UH1.Port,
		Baud:        cfg.UH1.Baud,
		ReadTimeout: cfg.GetReadTimeout(),
	})
	if err != nil {
		return fmt.Errorf("opening UH1 connection: %w", err)
	}
	defer func() {
		log.Info("closing UH1 connection")
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("error closing UH1 connection", "error", closeErr)
		}
	}()
	log.Info("UH1 connected",
		"mode", cfg.UH1.Mode,
		"device", cfg.UH1.Device,
		"host", cfg.UH1.Host,
	)

	// Start the bridge
	bridge, err := startBridge(cfg, conn, mqttClient, repo, influxClient, log)
	if err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	// Periodically forward bridge counters to InfluxDB
	if influxClient != nil {
		go func() {
			ticker := time.NewTicker(cfg.GetPollInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s := bridge.Stats()
					influxClient.WriteBridgeStats(s.QueueDepth, s.CommandsDone, s.PollsDone, s.Retries, s.Reconnects)
				}
			}
		}()
	}

	// Start the operational API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := startAPI(cfg, bridge, repo, db, mqttClient, influxClient, log)
		if apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Bridge (worker drains, poll loop stops)
	// 3. UH1 connection
	// 4. InfluxDB (if enabled)
	// 5. MQTT
	// 6. Database (if enabled)

	log.Info("Heatmiser bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEATBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEATBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startBridge wires the thermostat drivers, arbiter, and publisher,
// and starts the bridge.
//
// Parameters:
//   - cfg: Application configuration
//   - conn: Open UH1 connection
//   - mqttClient: Connected MQTT client
//   - repo: State history repository (may be nil)
//   - influxClient: InfluxDB client (may be nil)
//   - log: Logger instance
//
// Returns:
//   - *heatmiser.Bridge: Running bridge
//   - error: If construction or startup fails
func startBridge(cfg *config.Config, conn *uh1.Conn, mqttClient *mqtt.Client, repo *history.Repository, influxClient *influxdb.Client, log *logging.Logger) (*heatmiser.Bridge, error) {
	zones := make([]*heatmiser.Zone, 0, len(cfg.Zones))
	var hotWaterZone string
	for _, zc := range cfg.Zones {
		stat, err := uh1.NewThermostat(conn, zc.ID, uh1.Model(zc.Type))
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", zc.Name, err)
		}
		zones = append(zones, &heatmiser.Zone{
			Name:        zc.Name,
			ID:          zc.ID,
			FloorSensor: zc.Sensor == "floor",
			Stat:        stat,
		})
		if cfg.HotWater.Enabled && zc.ID == cfg.HotWater.ZoneID {
			hotWaterZone = zc.Name
		}
	}
	if cfg.HotWater.Enabled && hotWaterZone == "" {
		return nil, fmt.Errorf("hotwater.zone_id %d does not match a configured zone", cfg.HotWater.ZoneID)
	}

	arbiter := heatmiser.NewArbiter(heatmiser.ArbiterOptions{
		Transport:      conn,
		MaxRetries:     cfg.UH1.MaxRetries,
		RetryDelay:     cfg.GetRetryDelay(),
		ReconnectDelay: cfg.GetReconnectDelay(),
		Logger:         log,
	})

	mqttAdapter := &mqttBridgeAdapter{client: mqttClient}

	pubOpts := heatmiser.PublisherOptions{
		MQTTClient: mqttAdapter,
		Topics:     mqttClient.Topics(),
		QoS:        byte(cfg.MQTT.QoS),
		Logger:     log,
	}
	if repo != nil {
		pubOpts.Recorder = repo
	}
	if influxClient != nil {
		pubOpts.Metrics = influxClient
	}
	publisher := heatmiser.NewStatePublisher(pubOpts)

	bridge, err := heatmiser.NewBridge(heatmiser.BridgeOptions{
		BridgeID:        cfg.Bridge.ID,
		DiscoveryPrefix: cfg.Bridge.DiscoveryPrefix,
		Zones:           zones,
		HotWaterZone:    hotWaterZone,
		HotWaterName:    cfg.HotWater.Name,
		MQTTClient:      mqttAdapter,
		Arbiter:         arbiter,
		Publisher:       publisher,
		PollInterval:    cfg.GetPollInterval(),
		ZoneDelay:       cfg.GetZoneDelay(),
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started", "zones", len(zones), "hot_water", hotWaterZone != "")

	return bridge, nil
}

// startAPI wires and starts the operational HTTP server.
func startAPI(cfg *config.Config, bridge *heatmiser.Bridge, repo *history.Repository, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*api.Server, error) {
	checkers := map[string]api.HealthChecker{
		"mqtt": mqttClient,
	}
	if db != nil {
		checkers["database"] = db
	}
	if influxClient != nil {
		checkers["influxdb"] = influxClient
	}

	deps := api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Bridge:   bridge,
		Checkers: checkers,
		Version:  version,
	}
	if repo != nil {
		deps.History = repo
	}

	server, err := api.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}

	return server, nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the
// bridge's MQTTClient interface. The only difference is the Subscribe
// handler parameter: the infrastructure client declares a named
// MessageHandler type, the bridge declares the equivalent plain func
// type.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements heatmiser.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements heatmiser.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// IsConnected implements heatmiser.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
