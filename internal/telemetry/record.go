package telemetry

import (
	"math"
	"time"

	"vermicompost_monitor/internal/models"
)

// Record is the wire shape of a snapshot under the per-device namespace.
type Record struct {
	Temp0             *float64 `json:"temp0"`
	Temp1             *float64 `json:"temp1"`
	Moisture1         int      `json:"moisture1"`
	Moisture2         int      `json:"moisture2"`
	WaterLevel        int      `json:"water_level"`
	TDSVal            float64  `json:"tds_val"`
	PHVal             float64  `json:"ph_val"`
	UltraDistanceCM   float64  `json:"ultra_distance_cm"`
	UltraLevelPercent int      `json:"ultra_level_percent"`
	Timestamp         int64    `json:"timestamp"`
}

// FromSnapshot shapes a snapshot for the sinks. Missing probes become null.
func FromSnapshot(s models.SensorSnapshot) Record {
	return Record{
		Temp0:             optional(s.Temp1),
		Temp1:             optional(s.Temp2),
		Moisture1:         s.Moisture1,
		Moisture2:         s.Moisture2,
		WaterLevel:        s.WaterLevel,
		TDSVal:            s.TDS,
		PHVal:             s.PH,
		UltraDistanceCM:   s.UltraDistanceCM,
		UltraLevelPercent: s.UltraLevelPercent,
		Timestamp:         s.TakenAt.Unix(),
	}
}

// Time returns the record timestamp.
func (r Record) Time() time.Time { return time.Unix(r.Timestamp, 0).UTC() }

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
