package sensors

import "errors"

type fakeAnalog struct {
	raw   map[Channel]int
	reads map[Channel]int
}

func newFakeAnalog() *fakeAnalog {
	return &fakeAnalog{raw: map[Channel]int{}, reads: map[Channel]int{}}
}

func (f *fakeAnalog) ReadRaw(ch Channel) int {
	f.reads[ch]++
	return f.raw[ch]
}

type fakeADC struct {
	volts []float64
	errs  []error
	i     int
}

func (f *fakeADC) ReadVolts(int) (float64, error) {
	defer func() { f.i++ }()
	if f.i < len(f.errs) && f.errs[f.i] != nil {
		return 0, f.errs[f.i]
	}
	if len(f.volts) == 0 {
		return 0, errors.New("no data")
	}
	return f.volts[f.i%len(f.volts)], nil
}

type fakeBus struct {
	requestErr error
	addrs      []string
	temps      map[string]float64
	initErr    error
}

func (b *fakeBus) Init() error    { return b.initErr }
func (b *fakeBus) Request() error { return b.requestErr }
func (b *fakeBus) Address(i int) (string, bool) {
	if i < len(b.addrs) {
		return b.addrs[i], true
	}
	return "", false
}
func (b *fakeBus) TempC(addr string) (float64, bool) {
	v, ok := b.temps[addr]
	return v, ok
}
