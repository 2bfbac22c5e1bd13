package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTDSMeter_RateLimitsSamplingAndCompute(t *testing.T) {
	in := newFakeAnalog()
	in.raw[ChannelTDS] = 1000
	m := NewTDSMeter(in, ChannelTDS)
	t0 := time.Unix(1_700_000_000, 0)

	assert.Zero(t, m.Read(t0, 25), "first call only primes the timers")
	assert.Equal(t, 1, in.reads[ChannelTDS])

	assert.Zero(t, m.Read(t0.Add(10*time.Millisecond), 25))
	assert.Equal(t, 1, in.reads[ChannelTDS], "sample period not elapsed")

	now := t0
	var got float64
	for i := 1; i <= 20; i++ {
		now = t0.Add(time.Duration(i) * tdsSamplePeriod)
		if v := m.Read(now, 25); v > 0 {
			got = v
		}
	}
	assert.Equal(t, 21, in.reads[ChannelTDS])
	require.Greater(t, got, 0.0, "a value is produced once the compute period elapses")
	assert.InDelta(t, TDSFromVoltage(1000*adcVRef/adcMax, 25), got, 1e-9)
}

func TestTDSMeter_MedianRejectsSpike(t *testing.T) {
	in := newFakeAnalog()
	m := NewTDSMeter(in, ChannelTDS)
	t0 := time.Unix(0, 0)

	in.raw[ChannelTDS] = 800
	for i := 0; i < 10; i++ {
		m.Read(t0.Add(time.Duration(i)*tdsSamplePeriod), 25)
	}
	in.raw[ChannelTDS] = 4095
	m.Read(t0.Add(10*tdsSamplePeriod), 25)
	in.raw[ChannelTDS] = 800

	got := m.Read(t0.Add(time.Second), 25)
	assert.InDelta(t, TDSFromVoltage(800*adcVRef/adcMax, 25), got, 1e-9)
}

func TestTDSFromVoltage_TemperatureCompensation(t *testing.T) {
	at25 := TDSFromVoltage(1.2, 25)
	assert.Greater(t, at25, 0.0)
	assert.Less(t, TDSFromVoltage(1.2, 35), at25, "warmer water conducts more, so compensation lowers ppm")
	assert.Zero(t, TDSFromVoltage(0, 25))
}
