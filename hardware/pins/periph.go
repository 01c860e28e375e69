package pins

import (
	"github.com/juju/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// PeriphBanks drives display bus through periph.io registry pins.
// Pin names are whatever gpioreg knows, e.g. "GPIO17" or "17".
type PeriphBanks struct {
	pins []gpio.PinIO
	sigs []signal
	last []byte
}

var _ BankWriter = &PeriphBanks{}

func OpenPeriphBanks(pinmap PinMap) (*PeriphBanks, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	sigs, err := pinmap.signals()
	if err != nil {
		return nil, errors.Trace(err)
	}
	self := &PeriphBanks{
		pins: make([]gpio.PinIO, len(sigs)),
		sigs: sigs,
		last: make([]byte, len(sigs)),
	}
	for i, s := range sigs {
		p := gpioreg.ByName(s.pin)
		if p == nil {
			return nil, errors.NotFoundf("periph pin %s=%s", s.name, s.pin)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, errors.Annotatef(err, "periph pin %s=%s", s.name, s.pin)
		}
		self.pins[i] = p
	}
	return self, nil
}

func (self *PeriphBanks) WriteFrame(f Frame) error {
	for i, s := range self.sigs {
		v := s.level(f)
		if v == self.last[i] {
			continue
		}
		if err := self.pins[i].Out(gpio.Level(v == 1)); err != nil {
			return errors.Annotatef(err, "periph pin %s", s.name)
		}
		self.last[i] = v
	}
	return nil
}

// PeriphLines is periph.io counterpart of CdevLines.
type PeriphLines struct {
	pins   []gpio.PinIO
	output bool
}

var _ LineWriter = &PeriphLines{}
var _ LineReader = &PeriphLines{}

func OpenPeriphLines(output bool, tag string, names []string) (*PeriphLines, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	if len(names) == 0 {
		return nil, errors.NotValidf("%s lines empty", tag)
	}
	self := &PeriphLines{pins: make([]gpio.PinIO, len(names)), output: output}
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.NotFoundf("periph %s pin=%s", tag, name)
		}
		var err error
		if output {
			err = p.Out(gpio.Low)
		} else {
			err = p.In(gpio.PullDown, gpio.NoEdge)
		}
		if err != nil {
			return nil, errors.Annotatef(err, "periph %s pin=%s", tag, name)
		}
		self.pins[i] = p
	}
	return self, nil
}

func (self *PeriphLines) SetLines(values []byte) error {
	if !self.output {
		return errors.NotSupportedf("SetLines on input lines")
	}
	if len(values) != len(self.pins) {
		return errors.NotValidf("SetLines len=%d expected=%d", len(values), len(self.pins))
	}
	for i, v := range values {
		if err := self.pins[i].Out(gpio.Level(v != 0)); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (self *PeriphLines) ReadLines() ([]byte, error) {
	values := make([]byte, len(self.pins))
	for i, p := range self.pins {
		if p.Read() == gpio.High {
			values[i] = 1
		}
	}
	return values, nil
}
