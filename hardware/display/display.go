// Package display speaks command protocol of the graphics LCD controller.
// Command bytes go with A0 high, parameters with A0 low.
package display

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gcalc/log2"
)

type Command byte

const (
	CommandSystemSet  Command = 0x40
	CommandMemWrite   Command = 0x42
	CommandScroll     Command = 0x44
	CommandCursorW    Command = 0x46
	CommandCursorDir  Command = 0x4c // + Direction
	CommandDisplayOff Command = 0x58
	CommandDisplayOn  Command = 0x59
	CommandHDotScroll Command = 0x5a
	CommandOverlay    Command = 0x5b
	CommandCursorForm Command = 0x5d
	CommandGrayscale  Command = 0x60
)

type Direction byte

const (
	DirectionRight Direction = 0
	DirectionLeft  Direction = 1
	DirectionUp    Direction = 2
	DirectionDown  Direction = 3
)

// Parameters for 320x240 panel with 8 pixel characters.
var (
	paramSystemSet = []byte{
		0x20, // P1 8 pixel characters
		0x07, // P2 character width - 1
		0x07, // P3 character height - 1
		0x4f, // P4 C/R: bytes per row - 1
		0x2b, // P5 TC/R
		0xef, // P6 L/F: frame height - 1
		0x28, // P7 APL: horizontal address range
		0x00, // P8 APH
	}
	paramScroll = []byte{
		0x00, 0x00, // SAD1 = 0
		0xef,       // SL1 = 240 lines
		0x80, 0x25, // SAD2 = 9600
		0x00,       // SL2 = 0 lines
		0x81, 0x25, // SAD3 = 9601
	}
	paramHDotScroll = []byte{0x00}
	paramOverlay    = []byte{0x00}
	paramCursorForm = []byte{0x07, 0x07}
	paramGrayscale  = []byte{0x01}
)

const (
	AttribNoCursor     byte = 0x04 // screen block 1 on, cursor off
	AttribCursor       byte = 0x06 // screen block 1 on, cursor blink 1Hz
	AttribDualNoCursor byte = 0x14 // screen blocks 1-2 on, cursor off
	AttribDualCursor   byte = 0x16 // screen blocks 1-2 on, cursor blink 1Hz
)

// Screen geometry matching parameters above.
const (
	Width        = 320
	Height       = 240
	Columns      = 40
	Rows         = Height / 8
	BytesPerRow  = Columns
	TextAddress  = 0x0000
	GraphAddress = 0x2580 // second screen block
	MemorySize   = 0x8000
)

// Submitter is the display link.
type Submitter interface {
	Submit(ctx context.Context, b byte, isCommand bool) error
}

// Resetter pulses controller RESET line. Display link implements it.
type Resetter interface {
	HardwareReset(pulse time.Duration) error
}

const DefaultResetPulse = 6 * time.Millisecond

type Controller struct {
	Log        *log2.Log
	s          Submitter
	MemorySize int
	// Pause between init steps, controller needs time after system set.
	StepDelay time.Duration
}

func New(s Submitter, log *log2.Log) *Controller {
	return &Controller{
		Log:        log,
		s:          s,
		MemorySize: MemorySize,
		StepDelay:  5 * time.Millisecond,
	}
}

func (self *Controller) Command(ctx context.Context, c Command, params ...byte) error {
	if err := self.s.Submit(ctx, byte(c), true); err != nil {
		return errors.Annotatef(err, "command=%02x", byte(c))
	}
	for i, p := range params {
		if err := self.s.Submit(ctx, p, false); err != nil {
			return errors.Annotatef(err, "command=%02x param%d=%02x", byte(c), i+1, p)
		}
	}
	return nil
}

// Reset pulses RESET line when link supports it. Must be done
// before display clock starts.
func (self *Controller) Reset() error {
	r, ok := self.s.(Resetter)
	if !ok {
		return errors.NotSupportedf("display reset via %T", self.s)
	}
	return errors.Annotate(r.HardwareReset(DefaultResetPulse), "display reset")
}

// Init runs power-on configuration. Display is left on with cursor hidden.
func (self *Controller) Init(ctx context.Context) error {
	steps := []struct {
		name string
		f    func(context.Context) error
	}{
		{"system-set", self.SystemSet},
		{"scroll", self.Scroll},
		{"hdot-scroll", self.HDotScroll},
		{"overlay", self.Overlay},
		{"display-off", func(ctx context.Context) error { return self.SetDisplay(ctx, false, false) }},
		{"clear", self.ClearMemory},
		{"cursor-address", func(ctx context.Context) error { return self.SetCursorAddress(ctx, 0) }},
		{"cursor-form", self.SetCursorForm},
		{"display-on", func(ctx context.Context) error { return self.SetDisplay(ctx, true, false) }},
	}
	for _, step := range steps {
		if err := step.f(ctx); err != nil {
			return errors.Annotatef(err, "display init %s", step.name)
		}
		self.Log.Debugf("display init %s ok", step.name)
		if self.StepDelay > 0 {
			select {
			case <-time.After(self.StepDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (self *Controller) SystemSet(ctx context.Context) error {
	return self.Command(ctx, CommandSystemSet, paramSystemSet...)
}

func (self *Controller) Scroll(ctx context.Context) error {
	return self.Command(ctx, CommandScroll, paramScroll...)
}

func (self *Controller) HDotScroll(ctx context.Context) error {
	return self.Command(ctx, CommandHDotScroll, paramHDotScroll...)
}

func (self *Controller) Overlay(ctx context.Context) error {
	return self.Command(ctx, CommandOverlay, paramOverlay...)
}

func (self *Controller) Grayscale(ctx context.Context) error {
	return self.Command(ctx, CommandGrayscale, paramGrayscale...)
}

func (self *Controller) SetDisplay(ctx context.Context, on, cursor bool) error {
	return self.SetLayers(ctx, on, cursor, false)
}

// SetLayers is SetDisplay that also turns on screen block 2 (graphics layer).
func (self *Controller) SetLayers(ctx context.Context, on, cursor, graph bool) error {
	c := CommandDisplayOff
	if on {
		c = CommandDisplayOn
	}
	attr := AttribNoCursor
	switch {
	case graph && cursor:
		attr = AttribDualCursor
	case graph:
		attr = AttribDualNoCursor
	case cursor:
		attr = AttribCursor
	}
	return self.Command(ctx, c, attr)
}

func (self *Controller) SetCursorAddress(ctx context.Context, addr uint16) error {
	return self.Command(ctx, CommandCursorW, byte(addr), byte(addr>>8))
}

func (self *Controller) SetCursorForm(ctx context.Context) error {
	return self.Command(ctx, CommandCursorForm, paramCursorForm...)
}

func (self *Controller) SetCursorDirection(ctx context.Context, d Direction) error {
	return self.Command(ctx, CommandCursorDir+Command(d&3))
}

// WriteMemory writes bs from current cursor address, cursor auto-advances.
func (self *Controller) WriteMemory(ctx context.Context, bs []byte) error {
	return self.Command(ctx, CommandMemWrite, bs...)
}

// WriteAt is cursor address then memory write.
func (self *Controller) WriteAt(ctx context.Context, addr uint16, bs ...byte) error {
	if err := self.SetCursorAddress(ctx, addr); err != nil {
		return err
	}
	return self.WriteMemory(ctx, bs)
}

// ClearMemory zero fills display memory in row sized chunks.
func (self *Controller) ClearMemory(ctx context.Context) error {
	zero := make([]byte, BytesPerRow)
	for addr := 0; addr < self.MemorySize; addr += len(zero) {
		n := len(zero)
		if rest := self.MemorySize - addr; rest < n {
			n = rest
		}
		if err := self.WriteAt(ctx, uint16(addr), zero[:n]...); err != nil {
			return errors.Annotatef(err, "clear address=%04x", addr)
		}
	}
	return nil
}
