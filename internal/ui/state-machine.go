package ui

import (
	"github.com/juju/errors"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/internal/equation"
)

// active returns edit target of current mode, nil in non-text modes.
func (self *UI) active() *equation.Buffer {
	switch self.state.Mode {
	case ModeCommandLine:
		return self.command
	case ModeEquationEdit:
		return self.equations.Slot(self.state.CurrentEquation)
	case ModeFunctionMenu:
		return self.selection
	}
	return nil
}

func (self *UI) draw() error {
	s := &self.state
	switch s.Mode {
	case ModeCommandLine:
		return self.screen.DrawCommandLine(self.command.String(), s.TextCursor)
	case ModeEquationEdit:
		return self.screen.DrawEquation(s.CurrentEquation, self.equations.Read(s.CurrentEquation), s.TextCursor)
	case ModeFunctionMenu:
		return self.screen.DrawFunctionMenu(self.functions, self.selection.String(), s.TextCursor)
	case ModeGraph:
		return self.screen.DrawGraph(self.allEquations(), s.Window)
	case ModeMenu:
		return self.screen.DrawMenu(s.PreviousMode)
	case ModeEquationList:
		return self.screen.DrawEquationList(self.allEquations())
	}
	return errors.Errorf("code error ui draw mode=%s", s.Mode.String())
}

func (self *UI) allEquations() []string {
	eqs := make([]string, equation.SlotCount)
	for i := range eqs {
		eqs[i] = self.equations.Read(equation.Slot(i))
	}
	return eqs
}

// enter places cursor in new mode: at end of text, or at
// cursor saved when mode was left for a menu.
func (self *UI) enter(restore bool) {
	s := &self.state
	s.TextCursor, s.BufferIndex = 0, 0
	buf := self.active()
	if buf == nil {
		return
	}
	s.BufferIndex = buf.Len()
	s.TextCursor = buf.Len()
	if restore && self.savedCursor < buf.Len() {
		s.TextCursor = self.savedCursor
	}
}

func (self *UI) switchMode(next Mode, restore bool) {
	s := &self.state
	if (next == ModeFunctionMenu || next == ModeMenu) && s.Mode.IsText() && s.Mode != ModeFunctionMenu {
		self.savedCursor = s.TextCursor
	}
	if next == ModeFunctionMenu && s.Mode != ModeFunctionMenu {
		self.selection.Clear()
	}
	if next != s.Mode {
		s.PreviousMode = s.Mode
		s.Mode = next
	}
	self.enter(restore)
	self.Log.Debugf("ui mode=%s prev=%s", s.Mode.String(), s.PreviousMode.String())
}

func (self *UI) onTransition(ch byte) error {
	next, slot, ok := NextMode(ch)
	if !ok {
		return errors.Errorf("code error ui transition key=%s", KeyName(ch))
	}
	if next == ModeEquationEdit {
		self.state.CurrentEquation = slot
	}
	self.switchMode(next, false)
	return self.draw()
}

func (self *UI) onAlt() {
	s := &self.state
	s.AltActive = !s.AltActive
	if self.indicator != nil {
		self.indicator.SetIndicator(s.AltActive)
	}
}

func (self *UI) onPrintable(ch byte) error {
	s := &self.state
	buf := self.active()
	if buf == nil {
		return nil
	}
	pos := s.TextCursor
	if err := buf.InsertAt(pos, ch); err != nil {
		if errors.Cause(err) == equation.ErrFull {
			self.Log.Debugf("ui mode=%s buffer full, key=%s ignored", s.Mode.String(), KeyName(ch))
			return nil
		}
		return err
	}
	s.TextCursor++
	s.BufferIndex = buf.Len()
	if pos == buf.Len()-1 {
		return self.screen.DrawCharacter(ch, pos)
	}
	return self.screen.RedrawLine(buf.String(), s.TextCursor)
}

func (self *UI) onCursorMove(ch byte) error {
	s := &self.state
	buf := self.active()
	if buf == nil {
		return nil
	}
	c := s.TextCursor
	switch {
	case ch == KeyLeft && c > 0:
		c--
	case ch == KeyRight && c < buf.Len()-1:
		c++
	}
	// right at last char or past end stays put
	if c == s.TextCursor {
		return nil
	}
	s.TextCursor = c
	return self.screen.SetCursor(c)
}

func (self *UI) onDelete() error {
	s := &self.state
	buf := self.active()
	if buf == nil {
		return nil
	}
	if err := buf.DeleteAt(s.TextCursor); err != nil {
		if errors.Cause(err) == equation.ErrOutOfRange {
			self.Log.Debugf("ui delete cursor=%d len=%d ignored", s.TextCursor, buf.Len())
			return nil
		}
		return err
	}
	s.BufferIndex = buf.Len()
	return self.screen.RedrawLine(buf.String(), s.TextCursor)
}

func (self *UI) onExecute() error {
	switch self.state.Mode {
	case ModeCommandLine:
		return self.executeCommand()
	case ModeEquationEdit:
		return self.executeEquation()
	case ModeFunctionMenu:
		return self.executeFunction()
	case ModeMenu:
		prev := self.state.PreviousMode
		if prev == ModeMenu || prev == ModeFunctionMenu {
			prev = ModeCommandLine
		}
		self.switchMode(prev, true)
		return self.draw()
	}
	return nil
}

func (self *UI) executeCommand() error {
	s := &self.state
	text := self.command.String()
	errs := make([]error, 0, 2)
	if err := self.screen.PrintCommandOutput(text); err != nil {
		errs = append(errs, err)
	}
	switch s.PendingPaste {
	case PasteText:
		if err := self.screen.DrawCommandLine(text, s.TextCursor); err != nil {
			errs = append(errs, err)
		}
	case PasteWindow:
		if w, err := ParseWindow(text); err != nil {
			errs = append(errs, errors.Annotate(err, "window not changed"))
		} else {
			s.Window = w
			self.Log.Debugf("ui %s", w.String())
		}
	}
	s.PendingPaste = PasteNone
	self.command.Clear()
	s.TextCursor, s.BufferIndex = 0, 0
	if err := self.screen.DrawCommandLine("", 0); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Annotatef(helpers.FoldErrors(errs), "command=%q", text)
}

func (self *UI) executeEquation() error {
	s := &self.state
	text := self.equations.Read(s.CurrentEquation)
	if self.checker != nil && text != "" {
		if err := self.checker.CheckValidExpression(text, true); err != nil {
			self.Log.Infof("equation %s=%q invalid: %v", s.CurrentEquation.String(), text, err)
		}
	}
	s.PendingPaste = PasteNone
	self.switchMode(ModeEquationList, false)
	return self.draw()
}

func (self *UI) executeFunction() error {
	s := &self.state
	idx, err := ResolveFunction(self.selection.String(), self.functions)
	if err != nil {
		self.Log.Debugf("ui %v", err)
		self.selection.Clear()
		s.TextCursor, s.BufferIndex = 0, 0
		return self.draw()
	}
	f := self.functions[idx]
	s.Mode, s.PreviousMode = s.PreviousMode, ModeFunctionMenu
	self.selection.Clear()
	self.enter(true)
	if buf := self.active(); buf != nil {
		switch err := buf.InsertString(s.TextCursor, f.Text); errors.Cause(err) {
		case nil:
			s.TextCursor += len(f.Text)
			s.BufferIndex = buf.Len()
			s.PendingPaste = f.Kind
		case equation.ErrFull:
			self.Log.Debugf("ui paste %s buffer full", f.Name)
		default:
			return err
		}
	}
	self.Log.Debugf("ui function=%s mode=%s paste=%s", f.Name, s.Mode.String(), s.PendingPaste.String())
	return self.draw()
}
