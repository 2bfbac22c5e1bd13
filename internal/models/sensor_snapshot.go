package models

import (
	"encoding/json"
	"math"
	"time"
)

// SensorSnapshot is one sampling cycle's worth of calibrated readings.
type SensorSnapshot struct {
	Temp1             float64   `json:"temp_1"`              // °C, NaN when the probe is absent
	Temp2             float64   `json:"temp_2"`              // °C, NaN when the probe is absent
	Moisture1         int       `json:"moisture_1"`          // 0..100
	Moisture2         int       `json:"moisture_2"`          // 0..100
	WaterLevel        int       `json:"water_level"`         // coarse source tank level 0..100
	TDS               float64   `json:"tds"`                 // ppm
	PH                float64   `json:"ph"`                  //
	UltraDistanceCM   float64   `json:"ultra_distance_cm"`   // filtered range
	UltraLevelPercent int       `json:"ultra_level_percent"` // destination tank fill 0..100
	TakenAt           time.Time `json:"taken_at"`
}

// AvgMoisture returns the mean of both moisture probes.
func (s SensorSnapshot) AvgMoisture() float64 {
	return float64(s.Moisture1+s.Moisture2) / 2
}

// AvgTemp returns the mean of the readable temperature probes.
// ok is false when neither probe produced a value.
func (s SensorSnapshot) AvgTemp() (avg float64, ok bool) {
	var sum float64
	var n int
	for _, v := range []float64{s.Temp1, s.Temp2} {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// FirstTemp returns the first readable probe temperature.
func (s SensorSnapshot) FirstTemp() (float64, bool) {
	if !math.IsNaN(s.Temp1) {
		return s.Temp1, true
	}
	if !math.IsNaN(s.Temp2) {
		return s.Temp2, true
	}
	return 0, false
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// MarshalJSON encodes absent temperature probes as null; encoding/json
// rejects NaN.
func (s SensorSnapshot) MarshalJSON() ([]byte, error) {
	type plain SensorSnapshot
	return json.Marshal(struct {
		plain
		Temp1 *float64 `json:"temp_1"`
		Temp2 *float64 `json:"temp_2"`
	}{
		plain: plain(s),
		Temp1: nanToNil(s.Temp1),
		Temp2: nanToNil(s.Temp2),
	})
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
