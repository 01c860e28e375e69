package screen

import (
	"context"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/gcalc/hardware/display"
	"github.com/temoto/gcalc/internal/equation"
	"github.com/temoto/gcalc/internal/ui"
	"github.com/temoto/gcalc/log2"
)

// fakeDisplay is display memory.
type fakeDisplay struct {
	mem      [display.MemorySize]byte
	cursor   uint16
	cursorOn bool
	graphOn  bool
	attrs    int
	writes   int
	bytes    int
	err      error
}

func (self *fakeDisplay) WriteAt(ctx context.Context, addr uint16, bs ...byte) error {
	if self.err != nil {
		return self.err
	}
	self.writes++
	self.bytes += len(bs)
	copy(self.mem[addr:], bs)
	self.cursor = addr + uint16(len(bs))
	return nil
}

func (self *fakeDisplay) SetCursorAddress(ctx context.Context, addr uint16) error {
	self.cursor = addr
	return nil
}

func (self *fakeDisplay) SetLayers(ctx context.Context, on, cursor, graph bool) error {
	self.cursorOn = cursor
	self.graphOn = graph
	self.attrs++
	return nil
}

func (self *fakeDisplay) row(r int) string {
	return string(self.mem[display.TextAddress+r*Columns : display.TextAddress+(r+1)*Columns])
}

func pad(s string) string { return s + strings.Repeat(" ", Columns-len(s)) }

type lineEval struct{}

// y = x, anything else fails
func (lineEval) Eval(expr string, x float64) (float64, error) {
	if expr == "x" {
		return x, nil
	}
	return 0, errors.NotSupportedf("expr=%s", expr)
}

func newTestScreen(t testing.TB) (*Screen, *fakeDisplay) {
	d := &fakeDisplay{}
	s, err := New(d, lineEval{}, Options{Log: log2.NewTest(t, log2.LDebug)})
	require.NoError(t, err)
	return s, d
}

func TestDiffRuns(t *testing.T) {
	t.Parallel()

	a := []byte("aaaaaaaaaaaaaaaa")
	b := []byte("abaaaaaaaabaabaa")
	assert.Equal(t, [][2]int{{1, 2}, {10, 14}}, diffRuns(a, b, 4))
	assert.Empty(t, diffRuns(a, a, 4))
	assert.Equal(t, [][2]int{{1, 2}, {10, 11}, {13, 14}}, diffRuns(a, b, 1))
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	require.NoError(t, s.DrawCommandLine("", 0))
	assert.Equal(t, pad(">"), d.row(promptRow))
	assert.Equal(t, strings.Repeat("-", Columns), d.row(promptRow-1))
	assert.True(t, d.cursorOn)
	assert.Equal(t, uint16(promptRow*Columns+2), d.cursor)

	d.writes, d.bytes = 0, 0
	require.NoError(t, s.DrawCharacter('7', 0))
	require.NoError(t, s.DrawCharacter('+', 1))
	require.NoError(t, s.DrawCharacter('2', 2))
	assert.Equal(t, pad("> 7+2"), d.row(promptRow))
	assert.Equal(t, 3, d.writes)
	assert.Equal(t, 3, d.bytes)
	assert.Equal(t, uint16(promptRow*Columns+5), d.cursor)

	require.NoError(t, s.PrintCommandOutput("7+2"))
	require.NoError(t, s.DrawCommandLine("", 0))
	assert.Equal(t, pad("7+2"), d.row(0))
	assert.Equal(t, pad(">"), d.row(promptRow))
	assert.Equal(t, pad(">"), s.TextRow(promptRow))
}

func TestEditLineScroll(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	long := strings.Repeat("1234567890", 5)
	require.NoError(t, s.DrawCommandLine(long, len(long)))
	// width 38, cursor after last char
	assert.Equal(t, "> "+long[13:]+" ", d.row(promptRow))
	assert.Equal(t, uint16(promptRow*Columns+Columns-1), d.cursor)

	require.NoError(t, s.SetCursor(0))
	assert.Equal(t, "> "+long[:38], d.row(promptRow))
	assert.Equal(t, uint16(promptRow*Columns+2), d.cursor)
}

func TestHistoryScroll(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	require.NoError(t, s.DrawCommandLine("", 0))
	for i := 0; i < historyRows+5; i++ {
		require.NoError(t, s.PrintCommandOutput(strings.Repeat("x", i%3)+"y"))
	}
	require.NoError(t, s.PrintCommandOutput(strings.Repeat("z", Columns+2)))
	assert.Equal(t, pad("zz"), d.row(historyRows-2))
	assert.Equal(t, strings.Repeat("z", Columns), d.row(historyRows-3))
	assert.Equal(t, pad(">"), d.row(promptRow))
}

func TestEquationScreens(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	require.NoError(t, s.DrawEquation(equation.SlotC, "x*2", 1))
	assert.Equal(t, pad("Equation C"), d.row(0))
	assert.Equal(t, pad("C=x*2"), d.row(2))
	assert.Equal(t, uint16(2*Columns+3), d.cursor)

	require.NoError(t, s.RedrawLine("x*23", 4))
	assert.Equal(t, pad("C=x*23"), d.row(2))

	require.NoError(t, s.DrawEquationList([]string{"x", "", "x*23", "", "", ""}))
	assert.Equal(t, pad("A=x"), d.row(2))
	assert.Equal(t, pad("C=x*23"), d.row(4))
	assert.False(t, d.cursorOn)
	assert.Error(t, s.DrawCharacter('1', 0))
}

func TestFunctionMenuAndMenu(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	require.NoError(t, s.DrawFunctionMenu(ui.DefaultFunctions, "1", 1))
	assert.Equal(t, pad(" 1 sin"), d.row(2))
	assert.Equal(t, pad(" 8 window"), d.row(9))
	assert.Equal(t, pad("Select: 1"), d.row(promptRow))
	assert.True(t, d.cursorOn)

	require.NoError(t, s.DrawMenu(ui.ModeGraph))
	assert.Equal(t, pad("exec: back to Graph"), d.row(2))
	assert.False(t, d.cursorOn)
}

func TestGraph(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	w, err := ui.NewWindowBounds(-16, 16, -12, 12) // 0.1 per pixel
	require.NoError(t, err)
	require.NoError(t, s.DrawGraph([]string{"x", "", "bad", "", "", ""}, w))
	assert.Equal(t, pad(""), d.row(0))
	assert.False(t, d.cursorOn)
	assert.True(t, d.graphOn)
	attrs := d.attrs
	require.NoError(t, s.DrawGraph([]string{"x", "", "", "", "", ""}, w))
	assert.Equal(t, attrs, d.attrs, "graph redraw resends attributes")

	// axes cross at 160,120
	assert.True(t, s.Pixel(0, 120))
	assert.True(t, s.Pixel(160, 0))
	// y=x
	assert.True(t, s.Pixel(170, 110))
	assert.True(t, s.Pixel(40, 239)) // y=-12 clipped to bottom row
	assert.False(t, s.Pixel(170, 130))
	assert.Equal(t, byte(0x80), d.mem[display.GraphAddress+120*display.BytesPerRow+160/8]&0x80)

	// text mode clears graphics layer and turns block 2 off
	require.NoError(t, s.DrawEquationList(make([]string, 6)))
	assert.False(t, d.graphOn)
	assert.False(t, s.Pixel(170, 110))
	assert.Equal(t, byte(0), d.mem[display.GraphAddress+120*display.BytesPerRow])
}

func TestFlushError(t *testing.T) {
	t.Parallel()

	s, d := newTestScreen(t)
	d.err = errors.Timeoutf("submit")
	err := s.DrawCommandLine("", 0)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(errors.Cause(err)))
}

func TestCodepage(t *testing.T) {
	t.Parallel()

	s, _ := newTestScreen(t)
	assert.Equal(t, []byte("abc"), s.Translate("abc"))
	require.NoError(t, s.SetCodepage("latin1"))
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, s.Translate("café"))
	assert.Error(t, s.SetCodepage("no-such-codepage"))
}
