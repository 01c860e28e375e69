// Package bus is the display link: one byte transmission slot shared by
// a blocking producer (Submit) and periodic clock tick (consumer).
//
// Every tick toggles clock line. On rising edge a pending byte is put on
// eight data lines at once together with command/data select, otherwise
// data lines go idle low. Field ownership:
// - pending, command: written by Submit only while busy=0
// - busy: set by Submit, cleared by Tick
// - clock, banks: Tick only
package bus

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers/atomic_clock"
	"github.com/temoto/gcalc/log2"
)

const (
	DefaultPeriod     = 100 * time.Microsecond
	DefaultResetPulse = 6 * time.Millisecond
)

var ErrClockStopped = errors.New("display clock is not running")
var ErrClockRunning = errors.New("display clock is running")

type Options struct {
	Log *log2.Log
	// Clock tick period, one full clock cycle takes two ticks.
	Period time.Duration
	// Submit gives up waiting for free slot after Timeout, 0 waits forever.
	Timeout time.Duration
}

type Link struct {
	stat stat // atomic align, keep first

	log     *log2.Log
	w       pins.BankWriter
	period  time.Duration
	timeout time.Duration
	submit  sync.Mutex

	// transmission slot
	pending uint32
	command uint32
	busy    uint32
	ack     chan struct{}

	clockOn   uint32
	indicator uint32

	// tick owned
	clock bool
	bankB byte
	bankD byte

	lastSent *atomic_clock.Clock
}

type stat struct {
	ticks       uint64
	sent        uint64
	commands    uint64
	timeouts    uint64
	writeErrors uint64
}

type Stat struct {
	Ticks       uint64
	Sent        uint64
	Commands    uint64
	Timeouts    uint64
	WriteErrors uint64
	LastSent    time.Time
}

func New(w pins.BankWriter, opt Options) *Link {
	if opt.Period <= 0 {
		opt.Period = DefaultPeriod
	}
	return &Link{
		log:      opt.Log,
		w:        w,
		period:   opt.Period,
		timeout:  opt.Timeout,
		ack:      make(chan struct{}, 1),
		lastSent: new(atomic_clock.Clock),
	}
}

func (self *Link) Period() time.Duration { return self.period }

// Submit waits until previous byte is clocked out, then posts b.
// Returns ErrClockStopped when no clock is attached, timeout error
// (errors.IsTimeout) after configured timeout, or ctx error.
func (self *Link) Submit(ctx context.Context, b byte, isCommand bool) error {
	if !self.ClockEnabled() {
		return ErrClockStopped
	}
	self.submit.Lock()
	defer self.submit.Unlock()

	if err := self.waitIdle(ctx); err != nil {
		if errors.IsTimeout(err) {
			atomic.AddUint64(&self.stat.timeouts, 1)
			err = errors.Annotatef(err, "submit byte=%02x command=%t", b, isCommand)
		}
		return err
	}
	var c uint32
	if isCommand {
		c = 1
	}
	atomic.StoreUint32(&self.pending, uint32(b))
	atomic.StoreUint32(&self.command, c)
	atomic.StoreUint32(&self.busy, 1)
	return nil
}

// Flush waits until posted byte is clocked out.
func (self *Link) Flush(ctx context.Context) error {
	self.submit.Lock()
	defer self.submit.Unlock()
	return self.waitIdle(ctx)
}

func (self *Link) Busy() bool { return atomic.LoadUint32(&self.busy) == 1 }

func (self *Link) waitIdle(ctx context.Context) error {
	if !self.Busy() {
		return nil
	}
	var tmrch <-chan time.Time
	if self.timeout > 0 {
		tmr := time.NewTimer(self.timeout)
		defer tmr.Stop()
		tmrch = tmr.C
	}
	// ack buffer may hold stale signal, always recheck busy
	for self.Busy() {
		if !self.ClockEnabled() {
			return ErrClockStopped
		}
		select {
		case <-self.ack:
		case <-tmrch:
			if !self.Busy() {
				return nil
			}
			return errors.Timeoutf("display bus slot busy for %s", self.timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (self *Link) signal() {
	select {
	case self.ack <- struct{}{}:
	default:
	}
}

// SetIndicator drives alt function LED, kept across idle pattern.
func (self *Link) SetIndicator(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&self.indicator, v)
}

func (self *Link) Indicator() bool { return atomic.LoadUint32(&self.indicator) == 1 }

// Tick is clock interrupt handler. Must only be called from one goroutine.
// Never blocks.
func (self *Link) Tick() {
	atomic.AddUint64(&self.stat.ticks, 1)
	self.clock = !self.clock
	latch := false
	if self.clock {
		if self.Busy() {
			b := byte(atomic.LoadUint32(&self.pending))
			setBit(&self.bankB, pins.BA0, atomic.LoadUint32(&self.command) == 1)
			for i := 7; i >= 0; i-- {
				high := b&(1<<uint(i)) != 0
				switch i {
				case 7:
					setBit(&self.bankB, pins.BDB7, high)
				case 6:
					setBit(&self.bankB, pins.BDB6, high)
				default:
					setBit(&self.bankD, 1<<uint(i+pins.DShift), high)
				}
			}
			latch = true
		} else {
			self.bankB &^= pins.BBusMask
			self.bankD = 0
		}
	}
	setBit(&self.bankB, pins.BClock, self.clock)
	setBit(&self.bankB, pins.BLED, self.Indicator())

	if err := self.w.WriteFrame(pins.Frame{B: self.bankB, D: self.bankD, Latch: latch}); err != nil {
		// byte stays pending, retried on next rising edge
		atomic.AddUint64(&self.stat.writeErrors, 1)
		return
	}
	if latch {
		if self.bankB&pins.BA0 != 0 {
			atomic.AddUint64(&self.stat.commands, 1)
		}
		atomic.AddUint64(&self.stat.sent, 1)
		self.lastSent.SetNow()
		atomic.StoreUint32(&self.busy, 0)
		self.signal()
	}
}

func setBit(reg *byte, mask byte, v bool) {
	if v {
		*reg |= mask
	} else {
		*reg &^= mask
	}
}

func (self *Link) ClockEnabled() bool { return atomic.LoadUint32(&self.clockOn) == 1 }

// EnableClock declares that something calls Tick periodically.
// Run does it on its own, tests stepping Tick by hand call it directly.
func (self *Link) EnableClock() { atomic.StoreUint32(&self.clockOn, 1) }

func (self *Link) DisableClock() {
	atomic.StoreUint32(&self.clockOn, 0)
	self.signal()
}

// Start enables clock and runs tick loop in background until a stops.
func (self *Link) Start(a *alive.Alive) error {
	if !a.Add(1) {
		return errors.Errorf("display clock start after stop")
	}
	self.EnableClock()
	go self.run(a)
	return nil
}

func (self *Link) run(a *alive.Alive) {
	defer a.Done()
	defer self.DisableClock()
	// dedicated thread keeps tick latency away from main loop work
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	self.log.Debugf("display clock start period=%s", self.period)
	tmr := time.NewTicker(self.period)
	defer tmr.Stop()
	stopch := a.StopChan()
	for {
		select {
		case <-tmr.C:
			self.Tick()
		case <-stopch:
			self.log.Debugf("display clock stop ticks=%d", atomic.LoadUint64(&self.stat.ticks))
			return
		}
	}
}

// HardwareReset pulses reset line, only valid before clock starts.
func (self *Link) HardwareReset(d time.Duration) error {
	if self.ClockEnabled() {
		return ErrClockRunning
	}
	if d <= 0 {
		d = DefaultResetPulse
	}
	if err := self.w.WriteFrame(pins.Frame{B: pins.BReset}); err != nil {
		return errors.Annotate(err, "reset high")
	}
	time.Sleep(d)
	self.bankB, self.bankD, self.clock = 0, 0, false
	return errors.Annotate(self.w.WriteFrame(pins.Frame{}), "reset low")
}

func (self *Link) Stat() Stat {
	s := Stat{
		Ticks:       atomic.LoadUint64(&self.stat.ticks),
		Sent:        atomic.LoadUint64(&self.stat.sent),
		Commands:    atomic.LoadUint64(&self.stat.commands),
		Timeouts:    atomic.LoadUint64(&self.stat.timeouts),
		WriteErrors: atomic.LoadUint64(&self.stat.writeErrors),
	}
	if !self.lastSent.IsZero() {
		s.LastSent = self.lastSent.Time()
	}
	return s
}
