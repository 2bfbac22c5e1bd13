// Package telemetry decides when snapshots leave the device and ships them
// to the configured sinks.
package telemetry

import (
	"math"
	"time"

	"vermicompost_monitor/internal/models"
)

// Cursor is the last snapshot handed to the sinks.
type Cursor struct {
	Last       models.SensorSnapshot
	LastUpload time.Time
	Valid      bool
}

// Gate suppresses unchanged snapshots between heartbeats and paces the
// historical record.
type Gate struct {
	upload time.Duration
	record time.Duration

	cur        Cursor
	lastRecord time.Time
}

func NewGate(upload, record time.Duration) *Gate {
	return &Gate{upload: upload, record: record}
}

// Due reports whether snap should be pushed. It is false only when every
// compared field is bit-identical to the cursor and the upload interval
// has not elapsed.
func (g *Gate) Due(now time.Time, snap models.SensorSnapshot) bool {
	if !g.cur.Valid {
		return true
	}
	if now.Sub(g.cur.LastUpload) >= g.upload {
		return true
	}
	return !sameReadings(g.cur.Last, snap)
}

// Commit moves the cursor after a push was accepted.
func (g *Gate) Commit(now time.Time, snap models.SensorSnapshot) {
	g.cur = Cursor{Last: snap, LastUpload: now, Valid: true}
}

// RecordDue reports whether a dated historical record is owed.
func (g *Gate) RecordDue(now time.Time) bool {
	return g.lastRecord.IsZero() || now.Sub(g.lastRecord) >= g.record
}

func (g *Gate) CommitRecord(now time.Time) { g.lastRecord = now }

func (g *Gate) Cursor() Cursor { return g.cur }

func sameReadings(a, b models.SensorSnapshot) bool {
	return sameFloat(a.Temp1, b.Temp1) &&
		sameFloat(a.Temp2, b.Temp2) &&
		a.Moisture1 == b.Moisture1 &&
		a.Moisture2 == b.Moisture2 &&
		a.WaterLevel == b.WaterLevel &&
		sameFloat(a.TDS, b.TDS) &&
		sameFloat(a.PH, b.PH) &&
		a.UltraLevelPercent == b.UltraLevelPercent
}

// sameFloat compares bit patterns so two NaN readings count as unchanged.
func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
