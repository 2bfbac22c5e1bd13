package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Execer is the subset of a ClickHouse connection the archive needs.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS vermi_live (
		device_id String,
		ts DateTime,
		temp0 Nullable(Float64),
		temp1 Nullable(Float64),
		moisture1 UInt8,
		moisture2 UInt8,
		water_level UInt8,
		tds_val Float64,
		ph_val Float64,
		ultra_distance_cm Float64,
		ultra_level_percent UInt8
	) ENGINE = ReplacingMergeTree(ts)
	ORDER BY device_id`,
	`CREATE TABLE IF NOT EXISTS vermi_records (
		device_id String,
		ts DateTime,
		temp0 Nullable(Float64),
		temp1 Nullable(Float64),
		moisture1 UInt8,
		moisture2 UInt8,
		water_level UInt8,
		tds_val Float64,
		ph_val Float64,
		ultra_distance_cm Float64,
		ultra_level_percent UInt8
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(ts)
	ORDER BY (device_id, ts)`,
}

// ClickHouseSink archives records. The live table keeps one row per device
// after merges.
type ClickHouseSink struct {
	conn Execer
}

// OpenClickHouse connects, pings and creates the tables.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	s := NewClickHouseSink(conn)
	if err := s.InitSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func NewClickHouseSink(conn Execer) *ClickHouseSink {
	return &ClickHouseSink{conn: conn}
}

// Close releases the connection when it owns one.
func (s *ClickHouseSink) Close() error {
	if c, ok := s.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *ClickHouseSink) InitSchema(ctx context.Context) error {
	for _, q := range clickhouseSchema {
		if err := s.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create clickhouse table: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSink) Upsert(ctx context.Context, deviceID string, rec Record) error {
	return s.insert(ctx, "vermi_live", deviceID, rec)
}

func (s *ClickHouseSink) Append(ctx context.Context, deviceID string, rec Record) error {
	return s.insert(ctx, "vermi_records", deviceID, rec)
}

func (s *ClickHouseSink) insert(ctx context.Context, table, deviceID string, rec Record) error {
	q := `INSERT INTO ` + table + ` (device_id, ts, temp0, temp1, moisture1, moisture2, water_level,
		tds_val, ph_val, ultra_distance_cm, ultra_level_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := s.conn.Exec(ctx, q,
		deviceID,
		rec.Time(),
		rec.Temp0,
		rec.Temp1,
		uint8(rec.Moisture1),
		uint8(rec.Moisture2),
		uint8(rec.WaterLevel),
		rec.TDSVal,
		rec.PHVal,
		rec.UltraDistanceCM,
		uint8(rec.UltraLevelPercent),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
