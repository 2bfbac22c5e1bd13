// @title           Vermicompost Bin Monitor API
// @version         1.0
// @description     Provisioning, calibration and monitoring of a vermicompost bin and its watering pump.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "vermicompost_monitor/docs"
	"vermicompost_monitor/internal/broker"
	"vermicompost_monitor/internal/config"
	"vermicompost_monitor/internal/handlers"
	"vermicompost_monitor/internal/hardware"
	"vermicompost_monitor/internal/level"
	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/remote"
	"vermicompost_monitor/internal/repository"
	"vermicompost_monitor/internal/repository/db"
	"vermicompost_monitor/internal/sensors"
	"vermicompost_monitor/internal/server"
	"vermicompost_monitor/internal/service"
	"vermicompost_monitor/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mqttClient *broker.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = broker.NewClient(broker.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,

			RetryInterval: cfg.MQTT.RetryInterval,
			ConnectWait:   cfg.MQTT.ConnectWait,
		}, log.Named("mqtt"))
		if err != nil {
			// only a permanent failure lands here; an unreachable broker is
			// retried in the background
			log.Errorw("mqtt_connect_failed", "err", err)
		} else {
			defer mqttClient.Close()
		}
	}

	sink, closeSinks := buildSinks(ctx, cfg, repos, mqttClient, log)
	defer closeSinks()

	dispatcher := telemetry.NewDispatcher(sink, cfg.Device.ID, cfg.Telemetry.WriteTimeout, log.Named("telemetry"))
	ctrl := buildController(ctx, cfg, repos, dispatcher, mqttClient, log)
	if err := ctrl.Initialize(ctx, time.Now().UTC()); err != nil {
		log.Fatalw("controller init failed", "err", err)
	}

	services := service.NewService(repos, ctrl, service.Options{
		Device: service.DeviceInfo{
			ID:       cfg.Device.ID,
			Name:     cfg.Device.Name,
			MDNSHost: cfg.Device.MDNSHost,
		},
		SigningKey: cfg.Auth.SigningKey,
		SignupKey:  cfg.Auth.SignupKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Log:        log,
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Loop.Run(ctx, cfg.Loop.Tick)
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.HTTP.Port, apiHandler, log)
	log.Infow("service_started", "device", cfg.Device.ID, "port", cfg.HTTP.Port)

	waitForShutdown(cancel, srv, log)
	<-loopDone
	dispatcher.Wait()
}

// buildSinks assembles the telemetry fan-out: the local history always,
// MQTT and ClickHouse when enabled.
func buildSinks(ctx context.Context, cfg *config.Config, repos *repository.Repository, mqttClient *broker.Client, log *logger.Logger) (telemetry.Sink, func()) {
	sinks := telemetry.MultiSink{repos.TelemetryRepo}
	closers := []func(){}

	if mqttClient != nil {
		sinks = append(sinks, telemetry.NewMQTTSink(mqttClient))
	}
	if cfg.ClickHouse.Enabled {
		ch, err := telemetry.OpenClickHouse(ctx, telemetry.ClickHouseConfig{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		})
		switch {
		case err != nil:
			log.Errorw("clickhouse_open_failed", "err", err)
		default:
			if err := ch.InitSchema(ctx); err != nil {
				log.Errorw("clickhouse_schema_failed", "err", err)
			}
			sinks = append(sinks, ch)
			closers = append(closers, func() { _ = ch.Close() })
		}
	}
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// buildController wires the simulated bin, the signal chain, the pump policy
// and the remote command channel into the control loop.
func buildController(ctx context.Context, cfg *config.Config, repos *repository.Repository, dispatcher service.Dispatcher, mqttClient *broker.Client, log *logger.Logger) *service.Controller {
	var simOpts []hardware.SimOption
	if cfg.Control.RelayActiveLow {
		simOpts = append(simOpts, hardware.WithActiveLowRelay())
	}
	bin := hardware.NewSimBin(hardware.DefaultBinState(), simOpts...)

	deps := service.ControllerDeps{
		DeviceID:        cfg.Device.ID,
		SensorPeriod:    cfg.Loop.SensorPeriod,
		Acquirer:        sensors.NewAcquirer(sensors.Hardware{Analog: bin, Precision: bin, Bus: bin}, models.DefaultCalibration(), log.Named("sensors")),
		Level:           level.New(bin, models.DefaultUltraEmptyCM, models.DefaultUltraFullCM),
		Relay:           hardware.NewPolarityRelay(bin, cfg.Control.RelayActiveLow),
		Policy:          cfg.Control.Policy(),
		Gate:            telemetry.NewGate(cfg.Telemetry.UploadInterval, cfg.Telemetry.RecordInterval),
		Telemetry:       dispatcher,
		StateRepo:       repos.StateRepo,
		EventRepo:       repos.EventRepo,
		CalibrationRepo: repos.CalibrationRepo,
		Log:             log,
	}

	if mqttClient != nil {
		box := remote.NewMailbox()
		src := remote.NewMQTTSource(mqttClient, cfg.Device.ID, box, log.Named("remote"))
		mqttClient.OnConnectionLost(src.ConnectionLost)
		go remote.NewSupervisor(src, log.Named("remote")).Run(ctx)
		deps.Inbox = box
	}
	return service.NewController(deps)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines; the loop switches the pump off on exit
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
