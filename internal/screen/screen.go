// Package screen renders calculator UI onto graphics LCD: text layer
// at display.TextAddress, bitmap layer at display.GraphAddress.
// Both layers are shadowed in memory and only changed bytes are sent.
package screen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
	"github.com/temoto/gcalc/hardware/display"
	"github.com/temoto/gcalc/internal/equation"
	"github.com/temoto/gcalc/internal/ui"
	"github.com/temoto/gcalc/log2"
)

const (
	Columns     = display.Columns
	Rows        = display.Rows
	textSize    = Columns * Rows
	graphSize   = display.BytesPerRow * display.Height
	promptRow   = Rows - 1
	historyRows = Rows - 2
	// unchanged bytes shorter than this between two changed runs are
	// rewritten, one extra address command costs 3 bytes
	mergeGap = 4
)

// Display is subset of display.Controller used by Screen.
type Display interface {
	WriteAt(ctx context.Context, addr uint16, bs ...byte) error
	SetCursorAddress(ctx context.Context, addr uint16) error
	SetLayers(ctx context.Context, on, cursor, graph bool) error
}

// Evaluator computes y=f(x) for graph.
type Evaluator interface {
	Eval(expr string, x float64) (float64, error)
}

type Options struct {
	Log      *log2.Log
	Codepage string
	// Timeout for one screen operation, 0 means wait forever.
	Timeout time.Duration
}

type Screen struct {
	Log     *log2.Log
	mu      sync.Mutex
	d       Display
	eval    Evaluator
	timeout time.Duration
	tr      atomic.Value // charset.Translator

	text      [textSize]byte // what device shows
	textNext  [textSize]byte
	graph     [graphSize]byte
	graphNext [graphSize]byte
	cursorOn  bool
	cursorSet bool
	graphOn   bool // screen block 2 enabled on device
	wantGraph bool

	line    editLine
	history []string
}

// editLine is the line where keypad input is echoed.
type editLine struct {
	active bool
	row    int
	col    int
	width  int
	offset int
	cursor int
	text   []byte
}

var _ ui.Screen = &Screen{} // compile-time interface test

func New(d Display, eval Evaluator, opt Options) (*Screen, error) {
	self := &Screen{
		Log:     opt.Log,
		d:       d,
		eval:    eval,
		timeout: opt.Timeout,
	}
	self.blank()
	if opt.Codepage != "" {
		if err := self.SetCodepage(opt.Codepage); err != nil {
			return nil, errors.Annotate(err, "screen")
		}
	}
	return self, nil
}

func (self *Screen) SetCodepage(cp string) error {
	tr, err := charset.TranslatorTo(cp)
	if err != nil {
		return errors.Annotatef(err, "codepage=%s", cp)
	}
	self.tr.Store(tr)
	return nil
}

// Translate converts UTF-8 to display codepage.
func (self *Screen) Translate(s string) []byte {
	result := []byte(s)
	tr, ok := self.tr.Load().(charset.Translator)
	if ok && tr != nil {
		_, tb, err := tr.Translate(result, true)
		if err != nil {
			self.Log.Errorf("screen translate text=%q err=%v", s, err)
			return result
		}
		// translator reuses single internal buffer, make a copy
		result = append([]byte(nil), tb...)
	}
	return result
}

func (self *Screen) blank() {
	for i := range self.textNext {
		self.textNext[i] = ' '
	}
	for i := range self.graphNext {
		self.graphNext[i] = 0
	}
	self.wantGraph = false
	self.line = editLine{}
}

func (self *Screen) context() (context.Context, context.CancelFunc) {
	if self.timeout > 0 {
		return context.WithTimeout(context.Background(), self.timeout)
	}
	return context.WithCancel(context.Background())
}

// puts writes text at row/col, clipped to row end.
func (self *Screen) puts(row, col int, s string) {
	if row < 0 || row >= Rows || col >= Columns {
		return
	}
	b := self.Translate(s)
	if len(b) > Columns-col {
		b = b[:Columns-col]
	}
	copy(self.textNext[row*Columns+col:], b)
}

func (self *Screen) putf(row, col int, format string, args ...interface{}) {
	self.puts(row, col, fmt.Sprintf(format, args...))
}

func (self *Screen) clearRow(row int) {
	for i := row * Columns; i < (row+1)*Columns; i++ {
		self.textNext[i] = ' '
	}
}

func (self *Screen) setEditLine(row, col int, text string, cursor int) {
	self.line = editLine{
		active: true,
		row:    row,
		col:    col,
		width:  Columns - col,
		text:   append([]byte(nil), text...),
		cursor: cursor,
	}
	self.renderLine()
}

// renderLine scrolls edit line horizontally to keep cursor visible.
func (self *Screen) renderLine() {
	l := &self.line
	if !l.active {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.width {
		l.offset = l.cursor - l.width + 1
	}
	start := l.row*Columns + l.col
	for i := 0; i < l.width; i++ {
		ch := byte(' ')
		if j := l.offset + i; j < len(l.text) {
			ch = l.text[j]
		}
		self.textNext[start+i] = ch
	}
}

func (self *Screen) cursorAddress() uint16 {
	l := &self.line
	return uint16(display.TextAddress + l.row*Columns + l.col + l.cursor - l.offset)
}

// flush sends changed bytes of both layers and places cursor.
func (self *Screen) flush() error {
	ctx, cancel := self.context()
	defer cancel()

	if err := flushLayer(ctx, self.d, display.TextAddress, self.text[:], self.textNext[:]); err != nil {
		return errors.Annotate(err, "text layer")
	}
	if err := flushLayer(ctx, self.d, display.GraphAddress, self.graph[:], self.graphNext[:]); err != nil {
		return errors.Annotate(err, "graph layer")
	}
	if self.line.active != self.cursorOn || self.wantGraph != self.graphOn || !self.cursorSet {
		if err := self.d.SetLayers(ctx, true, self.line.active, self.wantGraph); err != nil {
			return errors.Annotate(err, "display attributes")
		}
		self.cursorOn = self.line.active
		self.graphOn = self.wantGraph
		self.cursorSet = true
	}
	if self.line.active {
		return errors.Annotate(self.d.SetCursorAddress(ctx, self.cursorAddress()), "cursor")
	}
	return nil
}

// flushLayer writes runs where next differs from front, then front=next.
func flushLayer(ctx context.Context, d Display, base uint16, front, next []byte) error {
	for _, r := range diffRuns(front, next, mergeGap) {
		if err := d.WriteAt(ctx, base+uint16(r[0]), next[r[0]:r[1]]...); err != nil {
			return errors.Annotatef(err, "address=%04x", int(base)+r[0])
		}
		copy(front[r[0]:r[1]], next[r[0]:r[1]])
	}
	return nil
}

// diffRuns returns [start,end) ranges where a and b differ.
// Ranges separated by less than gap equal bytes are merged.
func diffRuns(a, b []byte, gap int) [][2]int {
	var runs [][2]int
	for i := 0; i < len(b); {
		if a[i] == b[i] {
			i++
			continue
		}
		start := i
		end := i + 1
		for j := i + 1; j < len(b) && j-end < gap; j++ {
			if a[j] != b[j] {
				end = j + 1
			}
		}
		runs = append(runs, [2]int{start, end})
		i = end
	}
	return runs
}

func (self *Screen) DrawCommandLine(text string, cursor int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.renderHistory()
	for i := 0; i < Columns; i++ {
		self.textNext[(promptRow-1)*Columns+i] = '-'
	}
	self.puts(promptRow, 0, ">")
	self.setEditLine(promptRow, 2, text, cursor)
	return self.flush()
}

func (self *Screen) renderHistory() {
	start := 0
	if len(self.history) > historyRows-1 {
		start = len(self.history) - (historyRows - 1)
	}
	for i, s := range self.history[start:] {
		self.puts(i, 0, s)
	}
}

// PrintCommandOutput appends command to output history above prompt.
func (self *Screen) PrintCommandOutput(text string) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	for len(text) > Columns {
		self.history = append(self.history, text[:Columns])
		text = text[Columns:]
	}
	self.history = append(self.history, text)
	if over := len(self.history) - (historyRows - 1); over > 0 {
		self.history = append(self.history[:0], self.history[over:]...)
	}
	for r := 0; r < historyRows-1; r++ {
		self.clearRow(r)
	}
	self.renderHistory()
	return self.flush()
}

func (self *Screen) DrawEquation(slot equation.Slot, text string, cursor int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.putf(0, 0, "Equation %s", slot.String())
	self.putf(2, 0, "%s=", slot.String())
	self.puts(promptRow, 0, "exec=check")
	self.setEditLine(2, 2, text, cursor)
	return self.flush()
}

func (self *Screen) DrawEquationList(eqs []string) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.puts(0, 0, "Equations")
	for i, e := range eqs {
		self.putf(2+i, 0, "%s=%s", equation.Slot(i).String(), e)
	}
	return self.flush()
}

func (self *Screen) DrawFunctionMenu(fs []ui.Function, selection string, cursor int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.puts(0, 0, "Functions")
	for i, f := range fs {
		if 2+i >= promptRow-1 {
			break
		}
		self.putf(2+i, 0, "%2d %s", i+1, f.Name)
	}
	self.puts(promptRow, 0, "Select:")
	self.setEditLine(promptRow, 8, selection, cursor)
	return self.flush()
}

func (self *Screen) DrawMenu(prev ui.Mode) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.puts(0, 0, "Menu")
	self.putf(2, 0, "exec: back to %s", prev.String())
	self.puts(4, 0, "alt <  command line")
	self.puts(5, 0, "alt >  graph")
	self.puts(6, 0, "alt 1-6  equation A-F")
	self.puts(7, 0, "alt exec  equation list")
	self.puts(8, 0, "func  special functions")
	return self.flush()
}

func (self *Screen) DrawCharacter(ch byte, pos int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	l := &self.line
	if !l.active {
		return errors.Errorf("screen draw character without edit line")
	}
	if pos < 0 || pos > len(l.text) {
		return errors.NotValidf("screen draw character pos=%d len=%d", pos, len(l.text))
	}
	l.text = append(l.text, 0)
	copy(l.text[pos+1:], l.text[pos:])
	l.text[pos] = ch
	l.cursor = pos + 1
	self.renderLine()
	return self.flush()
}

func (self *Screen) RedrawLine(text string, cursor int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	l := &self.line
	if !l.active {
		return errors.Errorf("screen redraw without edit line")
	}
	l.text = append(l.text[:0], text...)
	l.cursor = cursor
	self.renderLine()
	return self.flush()
}

func (self *Screen) SetCursor(pos int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.line.active {
		return nil
	}
	self.line.cursor = pos
	self.renderLine()
	return self.flush()
}

// TextRow returns what device text layer shows at row, for tests and console.
func (self *Screen) TextRow(row int) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return string(self.text[row*Columns : (row+1)*Columns])
}
