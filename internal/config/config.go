package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vermicompost_monitor/internal/control"
)

// Config is the full runtime configuration.
type Config struct {
	Device     DeviceConfig     `mapstructure:"device"`
	Loop       LoopConfig       `mapstructure:"loop"`
	Control    ControlConfig    `mapstructure:"control"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	DB         DBConfig         `mapstructure:"db"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

// DeviceConfig identifies the bin; the id namespaces every remote path.
type DeviceConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	MDNSHost string `mapstructure:"mdns_host"`
}

// LoopConfig controls the polling loop cadence.
type LoopConfig struct {
	Tick         time.Duration `mapstructure:"tick"`
	SensorPeriod time.Duration `mapstructure:"sensor_period"`
}

// ControlConfig mirrors control.Config; kept separate so the control package
// stays free of mapstructure tags.
type ControlConfig struct {
	Cooldown       time.Duration `mapstructure:"cooldown"`
	MaxRun         time.Duration `mapstructure:"max_run"`
	MoistureLow    float64       `mapstructure:"moisture_low"`
	MoistureHigh   float64       `mapstructure:"moisture_high"`
	TempHigh       float64       `mapstructure:"temp_high"`
	TankFull       int           `mapstructure:"tank_full"`
	TankResume     int           `mapstructure:"tank_resume"`
	RelayActiveLow bool          `mapstructure:"relay_active_low"`
}

// Policy converts the loaded thresholds into the engine's config.
func (c ControlConfig) Policy() control.Config {
	return control.Config{
		Cooldown:     c.Cooldown,
		MaxRun:       c.MaxRun,
		MoistureLow:  c.MoistureLow,
		MoistureHigh: c.MoistureHigh,
		TempHigh:     c.TempHigh,
		TankFull:     c.TankFull,
		TankResume:   c.TankResume,
	}
}

// TelemetryConfig sets upload cadences.
type TelemetryConfig struct {
	UploadInterval time.Duration `mapstructure:"upload_interval"`
	RecordInterval time.Duration `mapstructure:"record_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// MQTTConfig configures the broker used for remote commands and telemetry.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	RetryInterval time.Duration `mapstructure:"retry_interval"`
	ConnectWait   time.Duration `mapstructure:"connect_wait"`
}

// ClickHouseConfig configures the optional historical archive.
type ClickHouseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	SignupKey  string        `mapstructure:"signup_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const envPrefix = "VERMI"

// setDefaults registers the defaults observed on deployed bins.
func setDefaults(v *viper.Viper) {
	v.SetDefault("device.id", "1934")
	v.SetDefault("device.name", "Vermi_Compost_1934")
	v.SetDefault("device.mdns_host", "vermi1934")

	v.SetDefault("loop.tick", 100*time.Millisecond)
	v.SetDefault("loop.sensor_period", time.Second)

	v.SetDefault("control.cooldown", 30*time.Second)
	v.SetDefault("control.max_run", 5*time.Second)
	v.SetDefault("control.moisture_low", 60.0)
	v.SetDefault("control.moisture_high", 80.0)
	v.SetDefault("control.temp_high", 34.0)
	v.SetDefault("control.tank_full", 90)
	v.SetDefault("control.tank_resume", 85)
	v.SetDefault("control.relay_active_low", false)

	v.SetDefault("telemetry.upload_interval", 5*time.Second)
	v.SetDefault("telemetry.record_interval", 60*time.Second)
	v.SetDefault("telemetry.write_timeout", 5*time.Second)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "vermi-1934")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.retry_interval", 10*time.Second)
	v.SetDefault("mqtt.connect_wait", 3*time.Second)

	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.addr", "localhost:9000")
	v.SetDefault("clickhouse.database", "vermi")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")

	v.SetDefault("db.path", "vermi.db")
	v.SetDefault("http.port", "8080")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.signup_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("log.level", "info")
}

// Load reads configs/config.yml (optional), a .env file (optional) and
// VERMI_* environment overrides, in increasing priority.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Device.ID) == "" {
		return errors.New("device.id is required")
	}
	if c.Loop.Tick <= 0 {
		return fmt.Errorf("loop.tick must be positive, got %s", c.Loop.Tick)
	}
	if err := c.Control.Policy().Validate(); err != nil {
		return fmt.Errorf("control: %w", err)
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required (set VERMI_AUTH_SIGNING_KEY)")
	}
	return nil
}
