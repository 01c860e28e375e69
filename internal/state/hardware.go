package state

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/bus"
	"github.com/temoto/gcalc/hardware/display"
	"github.com/temoto/gcalc/hardware/keypad"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/internal/screen"
	"github.com/temoto/gcalc/internal/ui"
	"github.com/temoto/gcalc/log2"
	"periph.io/x/periph/conn/physic"
)

type hardware struct {
	DisplayBus struct {
		once
		Writer pins.BankWriter
		Link   *bus.Link
	}
	Display struct {
		once
		Controller *display.Controller
	}
	Keypad struct {
		once
		Queue    *keypad.Queue
		Source   keypad.Source
		Poller   *keypad.Poller
		DevInput *keypad.DevInput
		// set with mock pin driver
		MockMatrix *pins.MockMatrix
		MockButton *pins.MockLevel
	}
	Screen struct {
		once
		S *screen.Screen
	}
	UI struct {
		once
		U *ui.UI
	}
}

func (g *Global) pinDriver() string {
	if d := g.Config.Hardware.DisplayBus.Driver; d != "" {
		return d
	}
	return DriverGpioCdev
}

func (g *Global) DisplayLink() (*bus.Link, error) {
	x := &g.Hardware.DisplayBus // short alias
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.DisplayBus
		if x.Writer == nil { // state-new testing mode sets Writer
			switch g.pinDriver() {
			case DriverGpioCdev:
				w, err := pins.OpenCdevBanks(g.Config.Hardware.PinChip, cfg.Pinmap)
				if err != nil {
					return errors.Annotatef(err, "config: display_bus chip=%s", g.Config.Hardware.PinChip)
				}
				x.Writer = w
			case DriverPeriph:
				w, err := pins.OpenPeriphBanks(cfg.Pinmap)
				if err != nil {
					return errors.Annotate(err, "config: display_bus")
				}
				x.Writer = w
			case DriverMock:
				x.Writer = new(pins.MockBanks)
			default:
				return errors.NotValidf("config: display_bus.driver=%s", cfg.Driver)
			}
		}

		log := g.Log.Clone(log2.LInfo)
		if cfg.LogDebug {
			log.SetLevel(log2.LDebug)
		}
		period := bus.DefaultPeriod
		if cfg.ClockHz > 0 {
			period = time.Second / time.Duration(cfg.ClockHz)
		}
		x.Link = bus.New(x.Writer, bus.Options{
			Log:     log,
			Period:  period,
			Timeout: helpers.IntMillisecondDefault(cfg.SubmitTimeoutMs, 0),
		})
		g.Log.Debugf("display bus driver=%s clock=%s period=%s",
			g.pinDriver(), physic.Frequency(int64(time.Second/period))*physic.Hertz, period)
		return nil
	})
	return x.Link, x.err
}

// Display returns nil,nil when display is disabled in config.
func (g *Global) Display() (*display.Controller, error) {
	x := &g.Hardware.Display
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Display
		if !cfg.Enable {
			g.Log.Infof("display is disabled")
			return nil
		}
		link, err := g.DisplayLink()
		if err != nil {
			return errors.Annotate(err, "display")
		}
		x.Controller = display.New(link, g.Log)
		if cfg.MemorySize > 0 {
			x.Controller.MemorySize = cfg.MemorySize
		}
		return nil
	})
	return x.Controller, x.err
}

func (g *Global) Keypad() (keypad.Source, error) {
	x := &g.Hardware.Keypad
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Keypad
		log := g.Log.Clone(log2.LInfo)
		if cfg.LogDebug {
			log.SetLevel(log2.LDebug)
		}
		if x.Queue == nil {
			x.Queue = keypad.NewQueue(cfg.QueueSize)
		}
		period := helpers.IntMillisecondDefault(cfg.PollMs, keypad.DefaultPollPeriod)

		switch cfg.Driver {
		case "", KeypadMatrix:
			rows, cols, err := g.openMatrix()
			if err != nil {
				return errors.Annotate(err, "config: keypad=matrix")
			}
			m := keypad.NewMatrix(rows, len(cfg.Rows), cols, x.Queue)
			x.Poller = keypad.NewPoller(log, period, m)
			x.Source = x.Queue

		case KeypadButton:
			line, err := g.openButton()
			if err != nil {
				return errors.Annotate(err, "config: keypad=button")
			}
			code := byte(cfg.ButtonCode)
			if code == keypad.CodeNone {
				return errors.NotValidf("config: keypad.button_code=0")
			}
			b := keypad.NewButton(line, code)
			x.Poller = keypad.NewPoller(log, period, b)
			x.Source = b

		case KeypadDevInputEvent:
			di, err := keypad.OpenDevInput(cfg.Device, x.Queue, log)
			if err != nil {
				return errors.Annotatef(err, "config: keypad device=%s", cfg.Device)
			}
			x.DevInput = di
			x.Source = di

		case DriverMock:
			x.Source = x.Queue

		default:
			return errors.NotValidf("config: keypad.driver=%s", cfg.Driver)
		}
		return nil
	})
	return x.Source, x.err
}

func (g *Global) openMatrix() (pins.LineWriter, pins.LineReader, error) {
	cfg := &g.Config.Hardware.Keypad
	if len(cfg.Rows) == 0 || len(cfg.Cols) == 0 {
		return nil, nil, errors.NotValidf("rows=%d cols=%d", len(cfg.Rows), len(cfg.Cols))
	}
	switch g.pinDriver() {
	case DriverGpioCdev:
		rows, err := pins.OpenCdevLines(g.Config.Hardware.PinChip, true, "keypad-rows", cfg.Rows)
		if err != nil {
			return nil, nil, err
		}
		cols, err := pins.OpenCdevLines(g.Config.Hardware.PinChip, false, "keypad-cols", cfg.Cols)
		if err != nil {
			_ = rows.Close()
			return nil, nil, err
		}
		return rows, cols, nil
	case DriverPeriph:
		rows, err := pins.OpenPeriphLines(true, "keypad-rows", cfg.Rows)
		if err != nil {
			return nil, nil, err
		}
		cols, err := pins.OpenPeriphLines(false, "keypad-cols", cfg.Cols)
		if err != nil {
			return nil, nil, err
		}
		return rows, cols, nil
	default:
		m := pins.NewMockMatrix(len(cfg.Rows), len(cfg.Cols))
		g.Hardware.Keypad.MockMatrix = m
		return m.Rows(), m.Cols(), nil
	}
}

func (g *Global) openButton() (pins.LineReader, error) {
	cfg := &g.Config.Hardware.Keypad
	if cfg.ButtonPin == "" && g.pinDriver() != DriverMock {
		return nil, errors.NotValidf("button_pin=empty")
	}
	switch g.pinDriver() {
	case DriverGpioCdev:
		return pins.OpenCdevLines(g.Config.Hardware.PinChip, false, "button", []string{cfg.ButtonPin})
	case DriverPeriph:
		return pins.OpenPeriphLines(false, "button", []string{cfg.ButtonPin})
	default:
		l := new(pins.MockLevel)
		g.Hardware.Keypad.MockButton = l
		return l, nil
	}
}

func (g *Global) Screen() (*screen.Screen, error) {
	x := &g.Hardware.Screen
	_ = x.do(func() error {
		d, err := g.Display()
		if err != nil {
			return errors.Annotate(err, "screen")
		}
		if d == nil {
			return errors.NotSupportedf("screen without display")
		}
		x.S, err = screen.New(d, g.Calc, screen.Options{
			Log:      g.Log,
			Codepage: g.Config.Hardware.Display.Codepage,
		})
		return err
	})
	return x.S, x.err
}

func (g *Global) UI() (*ui.UI, error) {
	x := &g.Hardware.UI
	_ = x.do(func() error {
		s, err := g.Screen()
		if err != nil {
			return errors.Annotate(err, "ui")
		}
		link, err := g.DisplayLink()
		if err != nil {
			return errors.Annotate(err, "ui")
		}
		x.U, err = ui.New(ui.Options{
			Log:       g.Log,
			Config:    &g.Config.UI,
			Screen:    s,
			Checker:   g.Calc,
			Indicator: link,
		})
		return err
	})
	return x.U, x.err
}

// StartHardware resets and initializes display, then starts display clock
// and keypad tasks. Display clock runs before anything is submitted.
func (g *Global) StartHardware(ctx context.Context) error {
	link, err := g.DisplayLink()
	if err != nil {
		return err
	}
	d, err := g.Display()
	if err != nil {
		return err
	}
	if d != nil {
		if err := d.Reset(); err != nil {
			return err
		}
	}
	if err := link.Start(g.Alive); err != nil {
		return errors.Annotate(err, "display bus")
	}
	if d != nil {
		if err := d.Init(ctx); err != nil {
			return err
		}
	}

	if _, err := g.Keypad(); err != nil {
		return err
	}
	x := &g.Hardware.Keypad
	if x.Poller != nil {
		if err := x.Poller.Run(g.Alive); err != nil {
			return err
		}
	}
	if x.DevInput != nil {
		if err := x.DevInput.Run(g.Alive); err != nil {
			return err
		}
	}
	return nil
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
