package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/display"
)

// Function is special function pasted into active buffer from function menu.
type Function struct {
	Name string
	Text string
	Kind PasteKind
}

func (f Function) String() string { return fmt.Sprintf("%s(%s)", f.Name, f.Kind.String()) }

var DefaultFunctions = []Function{
	{Name: "sin", Text: "sin(", Kind: PasteText},
	{Name: "cos", Text: "cos(", Kind: PasteText},
	{Name: "tan", Text: "tan(", Kind: PasteText},
	{Name: "sqrt", Text: "sqrt(", Kind: PasteText},
	{Name: "log", Text: "log(", Kind: PasteText},
	{Name: "ln", Text: "ln(", Kind: PasteText},
	{Name: "abs", Text: "abs(", Kind: PasteText},
	{Name: "window", Text: "window(", Kind: PasteWindow},
}

// ResolveFunction maps typed selection "1".."N" to index in fs.
func ResolveFunction(selection string, fs []Function) (int, error) {
	n, err := strconv.Atoi(selection)
	if err != nil || n < 1 || n > len(fs) {
		return -1, errors.NotValidf("function selection %q", selection)
	}
	return n - 1, nil
}

// WindowBounds is graph viewport. Steps are plot units per screen pixel.
type WindowBounds struct {
	XMin, XMax float64
	YMin, YMax float64
	XStep      float64
	YStep      float64
}

func NewWindowBounds(xmin, xmax, ymin, ymax float64) (WindowBounds, error) {
	if !(xmin < xmax) || !(ymin < ymax) {
		return WindowBounds{}, errors.NotValidf("window x=%g..%g y=%g..%g", xmin, xmax, ymin, ymax)
	}
	return WindowBounds{
		XMin: xmin, XMax: xmax,
		YMin: ymin, YMax: ymax,
		XStep: (xmax - xmin) / display.Width,
		YStep: (ymax - ymin) / display.Height,
	}, nil
}

func DefaultWindow() WindowBounds {
	w, _ := NewWindowBounds(-10, 10, -10, 10)
	return w
}

func (w WindowBounds) String() string {
	return fmt.Sprintf("window(%g,%g,%g,%g)", w.XMin, w.XMax, w.YMin, w.YMax)
}

// ParseWindow finds last "window(xmin,xmax,ymin,ymax)" in text.
// Closing parenthesis is optional.
func ParseWindow(text string) (WindowBounds, error) {
	const prefix = "window("
	i := strings.LastIndex(text, prefix)
	if i < 0 {
		return WindowBounds{}, errors.NotFoundf("window( in %q", text)
	}
	args := text[i+len(prefix):]
	if j := strings.IndexByte(args, ')'); j >= 0 {
		args = args[:j]
	}
	parts := strings.Split(args, ",")
	if len(parts) != 4 {
		return WindowBounds{}, errors.NotValidf("window args=%q expected 4", args)
	}
	var v [4]float64
	for k, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return WindowBounds{}, errors.Annotatef(err, "window arg%d", k+1)
		}
		v[k] = f
	}
	return NewWindowBounds(v[0], v[1], v[2], v[3])
}
