package pins

import (
	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
)

const consumerLabel = "gcalc"

// CdevBanks drives display bus through Linux GPIO character device.
type CdevBanks struct {
	lines gpio.Lineser
	sets  []gpio.LineSetFunc
	sigs  []signal
}

// compile-time interface compliance test
var _ BankWriter = &CdevBanks{}

func NewCdevBanks(chip gpio.Chiper, pinmap PinMap) (*CdevBanks, error) {
	sigs, err := pinmap.signals()
	if err != nil {
		return nil, errors.Trace(err)
	}
	offsets := make([]uint32, len(sigs))
	for i, s := range sigs {
		if offsets[i], err = parseLine(s.pin); err != nil {
			return nil, errors.Annotatef(err, "pinmap %s", s.name)
		}
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, consumerLabel+"-bus", offsets...)
	if err != nil {
		return nil, errors.Annotate(err, "display bus OpenLines")
	}
	self := &CdevBanks{
		lines: lines,
		sets:  make([]gpio.LineSetFunc, len(sigs)),
		sigs:  sigs,
	}
	for i, o := range offsets {
		self.sets[i] = lines.SetFunc(o)
	}
	return self, nil
}

func OpenCdevBanks(chipName string, pinmap PinMap) (*CdevBanks, error) {
	chip, err := gpio.Open(chipName, consumerLabel)
	if err != nil {
		return nil, errors.Annotatef(err, "gpio open chip=%s", chipName)
	}
	return NewCdevBanks(chip, pinmap)
}

func (self *CdevBanks) WriteFrame(f Frame) error {
	for i, s := range self.sigs {
		self.sets[i](s.level(f))
	}
	return self.lines.Flush()
}

func (self *CdevBanks) Close() error { return self.lines.Close() }

// CdevLines is a group of keypad lines, all inputs or all outputs.
type CdevLines struct {
	lines gpio.Lineser
	sets  []gpio.LineSetFunc
	n     int
}

var _ LineWriter = &CdevLines{}
var _ LineReader = &CdevLines{}

func NewCdevLines(chip gpio.Chiper, flag gpio.RequestFlag, tag string, names []string) (*CdevLines, error) {
	if len(names) == 0 {
		return nil, errors.NotValidf("%s lines empty", tag)
	}
	offsets := make([]uint32, len(names))
	for i, name := range names {
		var err error
		if offsets[i], err = parseLine(name); err != nil {
			return nil, errors.Annotate(err, tag)
		}
	}
	lines, err := chip.OpenLines(flag, consumerLabel+"-"+tag, offsets...)
	if err != nil {
		return nil, errors.Annotatef(err, "%s OpenLines", tag)
	}
	self := &CdevLines{lines: lines, n: len(offsets)}
	if flag&gpio.GPIOHANDLE_REQUEST_OUTPUT != 0 {
		self.sets = make([]gpio.LineSetFunc, len(offsets))
		for i, o := range offsets {
			self.sets[i] = lines.SetFunc(o)
		}
	}
	return self, nil
}

func (self *CdevLines) SetLines(values []byte) error {
	if self.sets == nil {
		return errors.NotSupportedf("SetLines on input lines")
	}
	if len(values) != self.n {
		return errors.NotValidf("SetLines len=%d expected=%d", len(values), self.n)
	}
	for i, v := range values {
		self.sets[i](v)
	}
	return self.lines.Flush()
}

func (self *CdevLines) ReadLines() ([]byte, error) {
	data, err := self.lines.Read()
	if err != nil {
		return nil, errors.Annotate(err, "gpio read")
	}
	values := make([]byte, self.n)
	copy(values, data.Values[:self.n])
	return values, nil
}

func (self *CdevLines) Close() error { return self.lines.Close() }

// OpenCdevLines opens chip and requests names as inputs or outputs.
func OpenCdevLines(chipName string, output bool, tag string, names []string) (*CdevLines, error) {
	chip, err := gpio.Open(chipName, consumerLabel)
	if err != nil {
		return nil, errors.Annotatef(err, "gpio open chip=%s", chipName)
	}
	flag := gpio.GPIOHANDLE_REQUEST_INPUT
	if output {
		flag = gpio.GPIOHANDLE_REQUEST_OUTPUT
	}
	return NewCdevLines(chip, flag, tag, names)
}
