package sensors

import (
	"errors"
	"fmt"
	"math"
	"time"

	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/models"
)

const (
	// probe indexes on the one-wire bus
	tempProbeCount = 2
	// DS18B20 disconnected reading
	disconnectedC = -127.0

	phChannel = 0
	phSamples = 10
)

// Hardware bundles the read primitives the acquirer needs.
type Hardware struct {
	Analog    AnalogReader
	Precision PrecisionADC
	Bus       TempBus
}

// Acquirer turns raw reads into a calibrated SensorSnapshot.
type Acquirer struct {
	hw  Hardware
	log *logger.Logger

	cal models.CalibrationProfile
	tds *TDSMeter
	ph  *PHProbe

	lastTDS   float64
	compTempC float64
	// raw moisture behind the last snapshot
	lastRaw [2]int
}

func NewAcquirer(hw Hardware, cal models.CalibrationProfile, log *logger.Logger) *Acquirer {
	return &Acquirer{
		hw:        hw,
		log:       logger.OrNop(log),
		cal:       cal,
		tds:       NewTDSMeter(hw.Analog, ChannelTDS),
		ph:        NewPHProbe(hw.Precision, phChannel, phSamples, DefaultPHCalibration),
		compTempC: referenceTempC,
	}
}

// Init runs the boot-time setup of every primitive that has one. Failures
// are collected and returned; the acquirer stays usable and reports
// sentinels for the failed probes.
func (a *Acquirer) Init() error {
	var errs []error
	for name, p := range map[string]any{
		"analog":    a.hw.Analog,
		"precision": a.hw.Precision,
		"bus":       a.hw.Bus,
	} {
		if in, ok := p.(Initializer); ok {
			if err := in.Init(); err != nil {
				errs = append(errs, fmt.Errorf("init %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// SetCalibration replaces the moisture endpoints used for mapping.
func (a *Acquirer) SetCalibration(p models.CalibrationProfile) {
	a.cal = p
}

// Poll feeds the TDS ring buffer. Call it every tick so the buffer fills at
// its own sample period regardless of the snapshot cadence.
func (a *Acquirer) Poll(now time.Time) {
	if v := a.tds.Read(now, a.compTempC); v > 0 {
		a.lastTDS = v
	}
}

// LastRaw returns the raw moisture readings the last Sample mapped, which
// is what the operator sees when recording a calibration endpoint.
func (a *Acquirer) LastRaw() (int, int) {
	return a.lastRaw[0], a.lastRaw[1]
}

// Sample reads every probe. It never fails: unreadable probes yield
// sentinels (NaN temperature, last TDS value, pH 0).
func (a *Acquirer) Sample(now time.Time) models.SensorSnapshot {
	a.Poll(now)

	snap := models.SensorSnapshot{TakenAt: now}
	snap.Temp1, snap.Temp2 = a.readTemps()
	if t, ok := snap.FirstTemp(); ok {
		a.compTempC = t
	}

	raw1, raw2 := a.hw.Analog.ReadRaw(ChannelMoisture1), a.hw.Analog.ReadRaw(ChannelMoisture2)
	a.lastRaw = [2]int{raw1, raw2}
	snap.Moisture1 = MoisturePercent(raw1, a.cal.AirRaw1, a.cal.WaterRaw1)
	snap.Moisture2 = MoisturePercent(raw2, a.cal.AirRaw2, a.cal.WaterRaw2)
	snap.WaterLevel = WaterLevelPercent(a.hw.Analog.ReadRaw(ChannelWaterLevel))
	snap.TDS = a.lastTDS

	if a.hw.Precision != nil {
		if ph, err := a.ph.Read(); err != nil {
			a.log.Warnw("ph_read_failed", "err", err)
		} else {
			snap.PH = ph
		}
	}
	return snap
}

func (a *Acquirer) readTemps() (float64, float64) {
	out := [tempProbeCount]float64{math.NaN(), math.NaN()}
	if a.hw.Bus == nil {
		return out[0], out[1]
	}
	if err := a.hw.Bus.Request(); err != nil {
		a.log.Debugw("temp_request_failed", "err", err)
		return out[0], out[1]
	}
	for i := 0; i < tempProbeCount; i++ {
		addr, ok := a.hw.Bus.Address(i)
		if !ok {
			continue
		}
		v, ok := a.hw.Bus.TempC(addr)
		if !ok || v == disconnectedC || math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return out[0], out[1]
}
