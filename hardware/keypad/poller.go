package keypad

import (
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/helpers/atomic_clock"
	"github.com/temoto/gcalc/log2"
)

const DefaultPollPeriod = 80 * time.Millisecond

// Ticker samples hardware once per poll period. Must not block.
type Ticker interface {
	Tick() error
}

// Poller is input poll task. It runs independently of display clock
// and never holds anything the clock tick needs.
type Poller struct {
	ticks    uint64
	errors   uint64
	Log      *log2.Log
	period   time.Duration
	ts       []Ticker
	lastTick *atomic_clock.Clock
	lastErr  string
}

type PollerStat struct {
	Ticks    uint64
	Errors   uint64
	LastTick time.Time
}

func NewPoller(log *log2.Log, period time.Duration, ts ...Ticker) *Poller {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	return &Poller{
		Log:      log,
		period:   period,
		ts:       ts,
		lastTick: new(atomic_clock.Clock),
	}
}

func (self *Poller) Period() time.Duration { return self.period }

// Tick runs all tickers once. Errors are logged when they change.
func (self *Poller) Tick() {
	atomic.AddUint64(&self.ticks, 1)
	self.lastTick.SetNow()
	for _, t := range self.ts {
		if err := t.Tick(); err != nil {
			atomic.AddUint64(&self.errors, 1)
			if s := err.Error(); s != self.lastErr {
				self.lastErr = s
				self.Log.Error(errors.Annotate(err, "keypad poll"))
			}
			continue
		}
		self.lastErr = ""
	}
}

func (self *Poller) Run(a *alive.Alive) error {
	if !a.Add(1) {
		return errors.Errorf("keypad poll start after stop")
	}
	go func() {
		defer a.Done()
		self.Log.Debugf("keypad poll start period=%s", self.period)
		tmr := time.NewTicker(self.period)
		defer tmr.Stop()
		stopch := a.StopChan()
		for {
			select {
			case <-tmr.C:
				self.Tick()
			case <-stopch:
				return
			}
		}
	}()
	return nil
}

func (self *Poller) Stat() PollerStat {
	s := PollerStat{
		Ticks:  atomic.LoadUint64(&self.ticks),
		Errors: atomic.LoadUint64(&self.errors),
	}
	if !self.lastTick.IsZero() {
		s.LastTick = self.lastTick.Time()
	}
	return s
}
