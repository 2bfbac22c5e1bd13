// Package level estimates the destination tank fill from an ultrasonic
// range finder mounted above the liquid surface.
package level

import (
	"math"
	"sync"
	"time"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/sensors"
)

const (
	triggerWidth = 10 * time.Microsecond
	echoTimeout  = 30 * time.Millisecond

	pingCount   = 5
	pingSpacing = 20 * time.Millisecond

	minValidCM = 2.0
	maxValidCM = 400.0

	// sentinelMarginCM is added to the calibrated empty distance when a
	// reading is unusable, so the level resolves to 0%.
	sentinelMarginCM = 10.0

	minCompTempC = -20.0
	maxCompTempC = 60.0
	defaultTempC = 20.0
)

// Transducer is the trigger/echo pair of the range finder.
type Transducer interface {
	// Trigger drives the trigger line low, then high for width.
	Trigger(width time.Duration)
	// Echo measures the next high pulse on the echo line. ok is false when
	// no pulse arrived before timeout.
	Echo(timeout time.Duration) (d time.Duration, ok bool)
}

// Estimator owns the ultrasonic calibration and the filtering pipeline.
type Estimator struct {
	tr    Transducer
	sleep func(time.Duration)

	mu      sync.RWMutex
	emptyCM float64
	fullCM  float64

	tempC float64
	hasT  bool
}

// Option customises an Estimator.
type Option func(*Estimator)

// WithSleep replaces the inter-ping delay; tests pass a no-op.
func WithSleep(fn func(time.Duration)) Option {
	return func(e *Estimator) { e.sleep = fn }
}

// New builds an estimator with the given calibration endpoints. Invalid
// endpoints fall back to the factory calibration.
func New(tr Transducer, emptyCM, fullCM float64, opts ...Option) *Estimator {
	e := &Estimator{
		tr:      tr,
		sleep:   time.Sleep,
		emptyCM: models.DefaultUltraEmptyCM,
		fullCM:  models.DefaultUltraFullCM,
	}
	if emptyCM > fullCM {
		e.emptyCM, e.fullCM = emptyCM, fullCM
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetCalibration accepts new endpoints when empty > full. On rejection the
// previous endpoints stay in effect.
func (e *Estimator) SetCalibration(emptyCM, fullCM float64) error {
	if !(emptyCM > fullCM) {
		return models.ErrInvalidCalibration
	}
	e.mu.Lock()
	e.emptyCM, e.fullCM = emptyCM, fullCM
	e.mu.Unlock()
	return nil
}

// Calibration returns the active endpoints.
func (e *Estimator) Calibration() (emptyCM, fullCM float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.emptyCM, e.fullCM
}

// SetTemperature records the air temperature used for speed-of-sound
// compensation. NaN clears it.
func (e *Estimator) SetTemperature(c float64) {
	if math.IsNaN(c) {
		e.hasT = false
		return
	}
	e.tempC, e.hasT = c, true
}

// SpeedOfSound returns m/s at the given temperature, clamped to a sane
// range.
func SpeedOfSound(tempC float64) float64 {
	if tempC < minCompTempC {
		tempC = minCompTempC
	}
	if tempC > maxCompTempC {
		tempC = maxCompTempC
	}
	return 331.3 + 0.606*tempC
}

func (e *Estimator) sentinel() float64 {
	emptyCM, _ := e.Calibration()
	return emptyCM + sentinelMarginCM
}

// MeasureDistanceCM fires a single ping. Timeouts and out-of-range echoes
// return the empty-tank sentinel.
func (e *Estimator) MeasureDistanceCM() float64 {
	e.tr.Trigger(triggerWidth)
	d, ok := e.tr.Echo(echoTimeout)
	if !ok || d <= 0 {
		return e.sentinel()
	}
	t := defaultTempC
	if e.hasT {
		t = e.tempC
	}
	// round trip: half the pulse covers the one-way distance
	cm := d.Seconds() * SpeedOfSound(t) * 100 / 2
	if cm < minValidCM || cm > maxValidCM {
		return e.sentinel()
	}
	return cm
}

// EstimateLevelPercent takes several spaced pings, keeps the median and
// maps it to a fill percentage.
func (e *Estimator) EstimateLevelPercent() (distanceCM float64, percent int) {
	var pings [pingCount]float64
	for i := range pings {
		if i > 0 {
			e.sleep(pingSpacing)
		}
		pings[i] = e.MeasureDistanceCM()
	}
	distanceCM = sensors.Median(pings[:])
	return distanceCM, e.DistanceToLevelPercent(distanceCM)
}

// DistanceToLevelPercent maps a distance onto the calibration line.
func (e *Estimator) DistanceToLevelPercent(cm float64) int {
	emptyCM, fullCM := e.Calibration()
	return DistanceToLevelPercent(cm, emptyCM, fullCM)
}

// DistanceToLevelPercent maps distance to fill: full or nearer is 100,
// empty or farther is 0.
func DistanceToLevelPercent(cm, emptyCM, fullCM float64) int {
	if !(emptyCM > fullCM) || math.IsNaN(cm) {
		return 0
	}
	if cm <= fullCM {
		return 100
	}
	if cm >= emptyCM {
		return 0
	}
	p := math.Round((emptyCM - cm) * 100 / (emptyCM - fullCM))
	return models.ClampPercent(int(p))
}
