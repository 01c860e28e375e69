package ui

import "github.com/temoto/gcalc/internal/equation"

// Logical characters that are not printable text.
// Slot keys are 1..6 for equations A..F.
const (
	KeyNone         byte = 0
	KeySlotA        byte = 1
	KeySlotF        byte = 6
	KeyAlt          byte = 0x0e
	KeyCommandLine  byte = 0x10
	KeyGraph        byte = 0x11
	KeyFunctionMenu byte = 0x12
	KeyMenu         byte = 0x13
	KeyEquationList byte = 0x14
	KeyExecute      byte = '\r'
	KeyDelete       byte = 0x7f
	KeyLeft         byte = '<'
	KeyRight        byte = '>'
)

// keymap[code-1] = {primary, alt}
var keymap = [20][2]byte{
	{'1', 1},
	{'2', 2},
	{'3', 3},
	{'4', 4},
	{'5', 5},
	{'6', 6},
	{'7', '('},
	{'8', ')'},
	{'9', '^'},
	{'0', 'x'},
	{'.', ','},
	{'+', '-'},
	{'*', '/'},
	{KeyLeft, KeyCommandLine},
	{KeyRight, KeyGraph},
	{KeyDelete, KeyMenu},
	{KeyExecute, KeyEquationList},
	{KeyFunctionMenu, KeyFunctionMenu},
	{'-', '='},
	{KeyAlt, KeyAlt},
}

// Decode maps raw keypad code to logical character, KeyNone if code is unknown.
func Decode(code byte, alt bool) byte {
	if code < 1 || int(code) > len(keymap) {
		return KeyNone
	}
	if alt {
		return keymap[code-1][1]
	}
	return keymap[code-1][0]
}

// Classify returns input type of logical character. Printable text is
// only accepted in text modes.
func Classify(ch byte, mode Mode) InputType {
	switch {
	case ch == KeyNone:
		return InputNone
	case ch == KeyAlt:
		return InputAltToggle
	case ch >= KeySlotA && ch <= KeySlotF,
		ch == KeyCommandLine, ch == KeyGraph, ch == KeyFunctionMenu,
		ch == KeyMenu, ch == KeyEquationList:
		return InputModeTransition
	case ch == KeyExecute:
		return InputExecute
	case ch == KeyLeft, ch == KeyRight:
		return InputCursorMove
	case ch == KeyDelete:
		return InputDelete
	case ch >= 0x20 && ch < 0x7f:
		if mode.IsText() {
			return InputPrintable
		}
	}
	return InputNone
}

// NextMode returns mode selected by transition key and equation slot for slot keys.
func NextMode(ch byte) (Mode, equation.Slot, bool) {
	switch ch {
	case KeyCommandLine:
		return ModeCommandLine, 0, true
	case KeyGraph:
		return ModeGraph, 0, true
	case KeyFunctionMenu:
		return ModeFunctionMenu, 0, true
	case KeyMenu:
		return ModeMenu, 0, true
	case KeyEquationList:
		return ModeEquationList, 0, true
	}
	if ch >= KeySlotA && ch <= KeySlotF {
		return ModeEquationEdit, equation.Slot(ch - KeySlotA), true
	}
	return 0, 0, false
}

// KeyName is human readable logical character.
func KeyName(ch byte) string {
	switch ch {
	case KeyNone:
		return "none"
	case KeyAlt:
		return "alt"
	case KeyCommandLine:
		return "cmd"
	case KeyGraph:
		return "graph"
	case KeyFunctionMenu:
		return "func"
	case KeyMenu:
		return "menu"
	case KeyEquationList:
		return "eqlist"
	case KeyExecute:
		return "exec"
	case KeyDelete:
		return "del"
	}
	if ch >= KeySlotA && ch <= KeySlotF {
		return "eq" + equation.Slot(ch-KeySlotA).String()
	}
	return string(rune(ch))
}

// CodeFor returns raw code and alt state producing logical character.
// Primary layer is preferred.
func CodeFor(ch byte) (code byte, alt bool, ok bool) {
	for i, k := range keymap {
		if k[0] == ch {
			return byte(i + 1), false, true
		}
	}
	for i, k := range keymap {
		if k[1] == ch {
			return byte(i + 1), true, true
		}
	}
	return 0, false, false
}

// ParseKeyName is reverse of KeyName. Single character names are literal.
func ParseKeyName(name string) (byte, bool) {
	if len(name) == 1 {
		return name[0], true
	}
	for _, ch := range []byte{KeyAlt, KeyCommandLine, KeyGraph, KeyFunctionMenu, KeyMenu, KeyEquationList, KeyExecute, KeyDelete} {
		if KeyName(ch) == name {
			return ch, true
		}
	}
	for ch := KeySlotA; ch <= KeySlotF; ch++ {
		if KeyName(ch) == name {
			return ch, true
		}
	}
	return KeyNone, false
}
