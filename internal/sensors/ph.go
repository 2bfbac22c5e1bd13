package sensors

import "errors"

// PHCalibration is a two-point (voltage, pH) line.
type PHCalibration struct {
	VoltsA, PHA float64
	VoltsB, PHB float64
}

// DefaultPHCalibration uses the pH 4.01 and pH 6.86 buffer solutions.
var DefaultPHCalibration = PHCalibration{
	VoltsA: 3.01, PHA: 4.01,
	VoltsB: 2.60, PHB: 6.86,
}

var errNoPHSamples = errors.New("ph: no successful adc reads")

// PHProbe averages several precision ADC reads and maps them to pH.
type PHProbe struct {
	adc     PrecisionADC
	channel int
	samples int
	cal     PHCalibration
}

func NewPHProbe(adc PrecisionADC, channel, samples int, cal PHCalibration) *PHProbe {
	if samples < 1 {
		samples = 1
	}
	return &PHProbe{adc: adc, channel: channel, samples: samples, cal: cal}
}

// Read returns the averaged pH. Failed ADC reads are skipped; if all fail
// the error is returned.
func (p *PHProbe) Read() (float64, error) {
	var sum float64
	var n int
	var lastErr error
	for i := 0; i < p.samples; i++ {
		v, err := p.adc.ReadVolts(p.channel)
		if err != nil {
			lastErr = err
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		if lastErr != nil {
			return 0, errors.Join(errNoPHSamples, lastErr)
		}
		return 0, errNoPHSamples
	}
	return p.cal.PH(sum / float64(n)), nil
}

// PH maps volts onto the calibration line.
func (c PHCalibration) PH(volts float64) float64 {
	step := (c.VoltsB - c.VoltsA) / (c.PHB - c.PHA)
	return (volts-c.VoltsA)/step + c.PHA
}

// Volts is the inverse of PH.
func (c PHCalibration) Volts(ph float64) float64 {
	step := (c.VoltsB - c.VoltsA) / (c.PHB - c.PHA)
	return (ph-c.PHA)*step + c.VoltsA
}
