package keypad

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/log2"
	"github.com/temoto/inputevent-go"
)

// Source produces raw key codes for UI. Next must not block.
type Source interface {
	Next() (byte, bool)
}

// Button is single button front-end, every press yields fixed code.
type Button struct {
	d    Debouncer
	line pins.LineReader
	code byte
}

// compile-time interface compliance test
var _ Source = new(Button)
var _ Ticker = new(Button)

func NewButton(line pins.LineReader, code byte) *Button {
	return &Button{line: line, code: code}
}

func (self *Button) String() string { return "button" }

func (self *Button) Tick() error {
	vs, err := self.line.ReadLines()
	if err != nil {
		return errors.Annotate(err, "button")
	}
	self.d.Tick(len(vs) != 0 && vs[0] != 0)
	return nil
}

func (self *Button) Next() (byte, bool) {
	if self.d.Consume() {
		return self.code, true
	}
	return 0, false
}

func (self *Button) State() DebounceState { return self.d.State() }

const DevInputEventTag = "dev-input-event"

// DefaultDevInputKeymap maps Linux key codes to raw keypad codes.
var DefaultDevInputKeymap = map[uint16]byte{
	inputevent.KEY_1: 1, inputevent.KEY_2: 2, inputevent.KEY_3: 3, inputevent.KEY_4: 4, inputevent.KEY_5: 5,
	inputevent.KEY_6: 6, inputevent.KEY_7: 7, inputevent.KEY_8: 8, inputevent.KEY_9: 9, inputevent.KEY_0: 10,
	inputevent.KEY_DOT:        11,
	inputevent.KEY_KPPLUS:     12,
	inputevent.KEY_KPASTERISK: 13,
	inputevent.KEY_LEFT:       14,
	inputevent.KEY_RIGHT:      15,
	inputevent.KEY_BACKSPACE:  16,
	inputevent.KEY_ENTER:      17,
	inputevent.KEY_F1:         18,
	inputevent.KEY_MINUS:      19,
	inputevent.KEY_LEFTALT:    20,
}

// DevInput reads key events from Linux input device (USB keyboard)
// into queue. Key down and autorepeat are ignored, a key is taken on release.
// With Reopen set, Run survives device unplug and retries with Backoff.
type DevInput struct {
	Log     *log2.Log
	Keymap  map[uint16]byte
	Reopen  func() (io.ReadCloser, error)
	Backoff helpers.Backoff
	mu      sync.Mutex
	r       io.ReadCloser
	q       *Queue
}

var _ Source = new(DevInput)

func OpenDevInput(device string, q *Queue, log *log2.Log) (*DevInput, error) {
	open := func() (io.ReadCloser, error) {
		f, err := os.Open(device)
		return f, errors.Annotatef(err, "%s device=%s", DevInputEventTag, device)
	}
	f, err := open()
	if err != nil {
		return nil, err
	}
	self := NewDevInput(f, q, log)
	self.Reopen = open
	return self, nil
}

func NewDevInput(r io.ReadCloser, q *Queue, log *log2.Log) *DevInput {
	return &DevInput{
		Log:     log,
		Keymap:  DefaultDevInputKeymap,
		Backoff: helpers.Backoff{Min: 100 * time.Millisecond, Max: 5 * time.Second, K: 2},
		r:       r,
		q:       q,
	}
}

func (self *DevInput) String() string { return DevInputEventTag }

func (self *DevInput) reader() io.ReadCloser {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.r
}

// ReadOne blocks until one mapped key is released and queued.
func (self *DevInput) ReadOne() error {
	r := self.reader()
	for {
		ie, err := inputevent.ReadOne(r)
		if err != nil {
			return errors.Annotate(err, DevInputEventTag)
		}
		if ie.Type != inputevent.EV_KEY || ie.Value != int32(inputevent.KeyStateUp) {
			continue
		}
		code, ok := self.Keymap[ie.Code]
		if !ok {
			self.Log.Debugf("%s unmapped key=%d", DevInputEventTag, ie.Code)
			continue
		}
		self.q.Push(code)
		return nil
	}
}

// Run reads until stop, or until error when Reopen is nil.
// Closing device unblocks read.
func (self *DevInput) Run(a *alive.Alive) error {
	if !a.Add(1) {
		return errors.Errorf("%s start after stop", DevInputEventTag)
	}
	go func() {
		<-a.StopChan()
		_ = self.reader().Close()
	}()
	go func() {
		defer a.Done()
		for {
			err := self.ReadOne()
			if err == nil {
				continue
			}
			select {
			case <-a.StopChan():
				return
			default:
			}
			self.Log.Error(err)
			if self.Reopen == nil || !self.reopen(a) {
				return
			}
		}
	}()
	return nil
}

func (self *DevInput) reopen(a *alive.Alive) bool {
	_ = self.reader().Close()
	for {
		select {
		case <-time.After(self.Backoff.Failure()):
		case <-a.StopChan():
			return false
		}
		r, err := self.Reopen()
		if err != nil {
			self.Log.Debugf("%s reopen err=%v", DevInputEventTag, err)
			continue
		}
		helpers.WithLock(&self.mu, func() { self.r = r })
		// stop could have closed old reader just before swap
		if !a.IsRunning() {
			_ = r.Close()
			return false
		}
		self.Backoff.Reset()
		self.Log.Infof("%s reopened", DevInputEventTag)
		return true
	}
}

func (self *DevInput) Next() (byte, bool) { return self.q.Pop() }
