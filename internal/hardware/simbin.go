package hardware

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"vermicompost_monitor/internal/level"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/sensors"
)

// ----------- Simulation constants -----------
const (
	AmbientC            = 25.0 // °C the bed drifts toward
	DryingPctPerSec     = 0.05 // bed moisture lost per second
	WettingPctPerSec    = 3.0  // bed moisture gained per second of pumping
	SourceDrainPctPerS  = 0.5  // source tank % used per second of pumping
	TankFillCMPerSec    = 0.15 // leachate rise in the destination tank while pumping
	TankDrainCMPerSec   = 0.01 // slow draw-off of the destination tank
	CoolingCPerSecOnRun = 0.05 // evaporative cooling while the bed is watered
	TempRelaxPerSec     = 0.002

	maxNoiseRaw = 6
)

var ErrBusFault = errors.New("simulated one-wire bus fault")

// BinState is the physical state of the simulated bin.
type BinState struct {
	MoisturePct    float64 // true bed moisture
	TempC          float64
	SourcePct      float64
	TankDistanceCM float64 // surface distance below the transducer
	TDSPPM         float64
	PH             float64
	PumpOn         bool
}

// DefaultBinState is a moderately dry bed with a full source tank.
func DefaultBinState() BinState {
	return BinState{
		MoisturePct:    55,
		TempC:          27,
		SourcePct:      100,
		TankDistanceCM: 13,
		TDSPPM:         420,
		PH:             7.1,
	}
}

// SimBin implements every read primitive and the relay pin from a single
// lazily advanced physical model.
type SimBin struct {
	mu        sync.Mutex
	st        BinState
	updatedAt time.Time
	now       func() time.Time
	rnd       *rand.Rand
	activeLow bool

	// fault injection
	MissingProbe int // index of a probe that does not answer, -1 for none
	BusFault     bool
	EchoLost     bool
}

// SimOption customises a SimBin.
type SimOption func(*SimBin)

// WithClock replaces time.Now; tests drive the model with a fake clock.
func WithClock(now func() time.Time) SimOption {
	return func(b *SimBin) { b.now = now }
}

// WithActiveLowRelay makes the pump run when the relay pin is low.
func WithActiveLowRelay() SimOption {
	return func(b *SimBin) { b.activeLow = true }
}

// WithoutNoise disables the ADC noise.
func WithoutNoise() SimOption {
	return func(b *SimBin) { b.rnd = nil }
}

func NewSimBin(st BinState, opts ...SimOption) *SimBin {
	b := &SimBin{
		st:           st,
		now:          time.Now,
		rnd:          rand.New(rand.NewSource(1)),
		MissingProbe: -1,
	}
	for _, o := range opts {
		o(b)
	}
	b.updatedAt = b.now()
	return b
}

// Init satisfies sensors.Initializer.
func (b *SimBin) Init() error { return nil }

// State returns the current physical state.
func (b *SimBin) State() BinState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.st
}

// SetState replaces the physical state.
func (b *SimBin) SetState(st BinState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	b.st = st
}

// advance moves the model forward to now. Caller holds mu.
func (b *SimBin) advance() {
	now := b.now()
	elapsed := now.Sub(b.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	b.updatedAt = now
	st := &b.st

	if st.PumpOn && st.SourcePct > 0 {
		st.MoisturePct += WettingPctPerSec * elapsed
		st.SourcePct -= SourceDrainPctPerS * elapsed
		st.TankDistanceCM -= TankFillCMPerSec * elapsed
		st.TempC -= CoolingCPerSecOnRun * elapsed
	} else {
		st.MoisturePct -= DryingPctPerSec * elapsed
		st.TankDistanceCM += TankDrainCMPerSec * elapsed
	}
	// relax toward ambient
	st.TempC += (AmbientC - st.TempC) * math.Min(1, TempRelaxPerSec*elapsed)

	st.MoisturePct = clamp(st.MoisturePct, 0, 100)
	st.SourcePct = clamp(st.SourcePct, 0, 100)
	st.TankDistanceCM = clamp(st.TankDistanceCM, 1, 30)
}

func (b *SimBin) noise() int {
	if b.rnd == nil {
		return 0
	}
	return b.rnd.Intn(2*maxNoiseRaw+1) - maxNoiseRaw
}

// ReadRaw satisfies sensors.AnalogReader.
func (b *SimBin) ReadRaw(ch sensors.Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	var raw float64
	switch ch {
	case sensors.ChannelMoisture1, sensors.ChannelMoisture2:
		span := float64(models.DefaultAirRaw - models.DefaultWaterRaw)
		raw = float64(models.DefaultAirRaw) - span*b.st.MoisturePct/100
	case sensors.ChannelWaterLevel:
		raw = float64(sensors.WaterLevelFullRaw) * b.st.SourcePct / 100
	case sensors.ChannelTDS:
		raw = tdsVolts(b.st.TDSPPM, b.st.TempC) * 4095 / 3.3
	default:
		return 0
	}
	v := int(math.Round(raw)) + b.noise()
	if v < 0 {
		return 0
	}
	if v > 4095 {
		return 4095
	}
	return v
}

// tdsVolts inverts sensors.TDSFromVoltage, which is strictly increasing.
func tdsVolts(ppm, tempC float64) float64 {
	lo, hi := 0.0, 3.3
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if sensors.TDSFromVoltage(mid, tempC) < ppm {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// ReadVolts satisfies sensors.PrecisionADC. Only channel 0 carries a probe.
func (b *SimBin) ReadVolts(ch int) (float64, error) {
	if ch != 0 {
		return 0, errors.New("simulated adc: channel not wired")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return sensors.DefaultPHCalibration.Volts(b.st.PH), nil
}

// Request satisfies sensors.TempBus.
func (b *SimBin) Request() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BusFault {
		return ErrBusFault
	}
	b.advance()
	return nil
}

func (b *SimBin) Address(i int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i > 1 || i == b.MissingProbe {
		return "", false
	}
	return probeAddrs[i], true
}

var probeAddrs = [2]string{"28-000000000a01", "28-000000000a02"}

func (b *SimBin) TempC(addr string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch addr {
	case probeAddrs[0]:
		return math.Round(b.st.TempC*16) / 16, true
	case probeAddrs[1]:
		// second probe sits deeper in the bed
		return math.Round((b.st.TempC+0.5)*16) / 16, true
	}
	return 0, false
}

// Trigger satisfies level.Transducer.
func (b *SimBin) Trigger(time.Duration) {}

func (b *SimBin) Echo(timeout time.Duration) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EchoLost {
		return 0, false
	}
	b.advance()
	secs := 2 * b.st.TankDistanceCM / 100 / level.SpeedOfSound(b.st.TempC)
	d := time.Duration(secs * float64(time.Second))
	if d > timeout {
		return 0, false
	}
	return d, true
}

// Write satisfies Pin; it is the pump relay line.
func (b *SimBin) Write(high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	b.st.PumpOn = high != b.activeLow
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
