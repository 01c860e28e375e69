// Package ui is keypad driven modal editor: command line, equation
// slots A..F, special function menu, graph and menus.
package ui

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/keypad"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/internal/equation"
	ui_config "github.com/temoto/gcalc/internal/ui/config"
	"github.com/temoto/gcalc/log2"
)

const (
	DefaultCommandSize  = 200
	DefaultFunctionSize = 2
	DefaultIdle         = 10 * time.Millisecond
)

// Screen renders UI. Draw* calls make given line active for
// following DrawCharacter/RedrawLine/SetCursor.
type Screen interface {
	DrawCommandLine(text string, cursor int) error
	PrintCommandOutput(text string) error
	DrawEquation(slot equation.Slot, text string, cursor int) error
	DrawEquationList(eqs []string) error
	DrawFunctionMenu(fs []Function, selection string, cursor int) error
	DrawMenu(prev Mode) error
	DrawGraph(eqs []string, w WindowBounds) error
	DrawCharacter(ch byte, pos int) error
	RedrawLine(text string, cursor int) error
	SetCursor(pos int) error
}

type Checker interface {
	CheckValidExpression(expr string, report bool) error
}

// Indicator shows alt shift state, e.g. LED.
type Indicator interface {
	SetIndicator(on bool)
}

type State struct {
	Mode            Mode
	PreviousMode    Mode
	TextCursor      int
	BufferIndex     int
	AltActive       bool
	PendingPaste    PasteKind
	CurrentEquation equation.Slot
	Window          WindowBounds
}

type Options struct {
	Log       *log2.Log
	Config    *ui_config.Config
	Screen    Screen
	Checker   Checker
	Indicator Indicator
}

type UI struct {
	Log       *log2.Log
	mu        sync.Mutex
	screen    Screen
	checker   Checker
	indicator Indicator
	functions []Function
	idle      time.Duration

	command   *equation.Buffer
	equations *equation.Store
	selection *equation.Buffer

	state State
	// cursor of text mode left for FunctionMenu or Menu
	savedCursor int

	XXX_testHook func(State)
}

func New(opt Options) (*UI, error) {
	if opt.Screen == nil {
		return nil, errors.NotValidf("ui screen=nil")
	}
	config := opt.Config
	if config == nil {
		config = &ui_config.Config{}
	}
	commandSize := config.CommandSize
	if commandSize <= 0 {
		commandSize = DefaultCommandSize
	}
	functionSize := config.FunctionSize
	if functionSize <= 0 {
		functionSize = DefaultFunctionSize
	}
	self := &UI{
		Log:       opt.Log,
		screen:    opt.Screen,
		checker:   opt.Checker,
		indicator: opt.Indicator,
		idle:      helpers.IntMillisecondDefault(config.IdleMs, DefaultIdle),
		command:   equation.NewBuffer(commandSize),
		equations: equation.NewStore(config.EquationSize),
		selection: equation.NewBuffer(functionSize),
	}
	self.functions = append(self.functions, DefaultFunctions...)
	for _, f := range config.Functions {
		if f.Name == "" || f.Text == "" {
			return nil, errors.NotValidf("ui function name=%q text=%q", f.Name, f.Text)
		}
		self.functions = append(self.functions, Function{Name: f.Name, Text: f.Text, Kind: PasteText})
	}

	self.state.Window = DefaultWindow()
	if w := config.Window; w.XMin != 0 || w.XMax != 0 || w.YMin != 0 || w.YMax != 0 {
		wb, err := NewWindowBounds(w.XMin, w.XMax, w.YMin, w.YMax)
		if err != nil {
			return nil, errors.Annotate(err, "ui config")
		}
		self.state.Window = wb
	}
	return self, nil
}

func (self *UI) State() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state
}

func (self *UI) Functions() []Function { return self.functions }

// Command returns command line text.
func (self *UI) Command() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.command.String()
}

func (self *UI) Equation(slot equation.Slot) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.equations.Read(slot)
}

// Redraw renders current mode from scratch.
func (self *UI) Redraw() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.draw()
}

// Handle processes one raw keypad code.
func (self *UI) Handle(code byte) {
	self.mu.Lock()
	defer self.mu.Unlock()

	s := &self.state
	ch := Decode(code, s.AltActive)
	it := Classify(ch, s.Mode)
	self.Log.Debugf("ui code=%d key=%s input=%s mode=%s", code, KeyName(ch), it.String(), s.Mode.String())
	var err error
	switch it {
	case InputNone:
		return
	case InputPrintable:
		err = self.onPrintable(ch)
	case InputAltToggle:
		self.onAlt()
	case InputModeTransition:
		err = self.onTransition(ch)
	case InputExecute:
		err = self.onExecute()
	case InputCursorMove:
		err = self.onCursorMove(ch)
	case InputDelete:
		err = self.onDelete()
	}
	if err != nil {
		self.Log.Error(errors.Annotatef(err, "ui mode=%s key=%s", s.Mode.String(), KeyName(ch)))
	}
	if self.XXX_testHook != nil {
		self.XXX_testHook(*s)
	}
}

// Drain handles all queued codes in order, returns number handled.
func (self *UI) Drain(src keypad.Source) int {
	n := 0
	for {
		code, ok := src.Next()
		if !ok {
			return n
		}
		self.Handle(code)
		n++
	}
}

// Loop draws initial screen and handles input until ctx is done.
func (self *UI) Loop(ctx context.Context, src keypad.Source, idle time.Duration) error {
	if idle <= 0 {
		idle = self.idle
	}
	if err := self.Redraw(); err != nil {
		self.Log.Error(errors.Annotate(err, "ui initial draw"))
	}
	tmr := time.NewTimer(idle)
	defer tmr.Stop()
	for {
		if self.Drain(src) != 0 {
			continue
		}
		tmr.Reset(idle)
		select {
		case <-tmr.C:
		case <-ctx.Done():
			self.Log.Debugf("ui loop end")
			return ctx.Err()
		}
	}
}
