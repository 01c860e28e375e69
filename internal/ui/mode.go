package ui

//go:generate stringer -type=Mode -trimprefix=Mode
type Mode uint8

const (
	ModeCommandLine Mode = iota
	ModeEquationEdit
	ModeFunctionMenu
	ModeGraph
	ModeMenu
	ModeEquationList
)

// text modes have cursor and active buffer
func (m Mode) IsText() bool {
	switch m {
	case ModeCommandLine, ModeEquationEdit, ModeFunctionMenu:
		return true
	}
	return false
}

//go:generate stringer -type=InputType -trimprefix=Input
type InputType uint8

const (
	InputNone InputType = iota
	InputPrintable
	InputAltToggle
	InputModeTransition
	InputExecute
	InputCursorMove
	InputDelete
)

//go:generate stringer -type=PasteKind -trimprefix=Paste
type PasteKind uint8

const (
	PasteNone PasteKind = iota
	PasteText
	PasteWindow
)
