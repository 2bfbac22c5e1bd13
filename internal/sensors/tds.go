package sensors

import "time"

const (
	tdsSampleCount   = 30
	tdsSamplePeriod  = 40 * time.Millisecond
	tdsComputePeriod = 800 * time.Millisecond

	adcVRef = 3.3
	adcMax  = 4095.0

	// TDS compensation reference temperature.
	referenceTempC = 25.0
)

// TDSMeter condenses a ring of raw TDS samples into ppm at a slow cadence.
type TDSMeter struct {
	in AnalogReader
	ch Channel

	buf    [tdsSampleCount]int
	next   int
	filled int

	lastSample  time.Time
	lastCompute time.Time
}

func NewTDSMeter(in AnalogReader, ch Channel) *TDSMeter {
	return &TDSMeter{in: in, ch: ch}
}

// Read appends a sample when the sample period has elapsed and returns a
// fresh concentration when the compute period has elapsed. It returns 0
// when no new value is ready.
func (m *TDSMeter) Read(now time.Time, tempC float64) float64 {
	if m.lastSample.IsZero() || now.Sub(m.lastSample) >= tdsSamplePeriod {
		m.lastSample = now
		m.buf[m.next] = m.in.ReadRaw(m.ch)
		m.next = (m.next + 1) % tdsSampleCount
		if m.filled < tdsSampleCount {
			m.filled++
		}
	}

	if m.lastCompute.IsZero() {
		m.lastCompute = now
		return 0
	}
	if now.Sub(m.lastCompute) < tdsComputePeriod {
		return 0
	}
	m.lastCompute = now

	volts := Median(m.buf[:m.filled]) * adcVRef / adcMax
	return TDSFromVoltage(volts, tempC)
}

// TDSFromVoltage converts probe volts to ppm with the probe vendor's cubic,
// compensated to 25 °C.
func TDSFromVoltage(volts, tempC float64) float64 {
	comp := 1.0 + 0.02*(tempC-referenceTempC)
	v := volts / comp
	tds := (133.42*v*v*v - 255.86*v*v + 857.39*v) * 0.5
	if tds < 0 {
		return 0
	}
	return tds
}
