package sensors

// Channel names an on-board 12-bit ADC input.
type Channel int

const (
	ChannelMoisture1 Channel = iota
	ChannelMoisture2
	ChannelWaterLevel
	ChannelTDS
)

func (c Channel) String() string {
	switch c {
	case ChannelMoisture1:
		return "moisture1"
	case ChannelMoisture2:
		return "moisture2"
	case ChannelWaterLevel:
		return "water_level"
	case ChannelTDS:
		return "tds"
	default:
		return "unknown"
	}
}

// AnalogReader reads the raw value of an on-board ADC channel.
type AnalogReader interface {
	ReadRaw(ch Channel) int
}

// PrecisionADC reads a single-ended channel of the external ADC in volts.
type PrecisionADC interface {
	ReadVolts(ch int) (float64, error)
}

// TempBus is a shared one-wire bus carrying the temperature probes.
type TempBus interface {
	// Request starts a conversion on every probe.
	Request() error
	// Address resolves the index-th probe on the bus.
	Address(index int) (string, bool)
	// TempC reads the last conversion of a probe.
	TempC(addr string) (float64, bool)
}

// Initializer is implemented by primitives that need a bus/peripheral
// setup at boot.
type Initializer interface {
	Init() error
}
