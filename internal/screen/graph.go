package screen

import (
	"math"

	"github.com/temoto/gcalc/hardware/display"
	"github.com/temoto/gcalc/internal/equation"
	"github.com/temoto/gcalc/internal/ui"
)

func (self *Screen) setPixel(x, y int) {
	if x < 0 || x >= display.Width || y < 0 || y >= display.Height {
		return
	}
	self.graphNext[y*display.BytesPerRow+x/8] |= 0x80 >> uint(x%8)
}

// Pixel reports device graphics layer pixel, for tests and console.
func (self *Screen) Pixel(x, y int) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.graph[y*display.BytesPerRow+x/8]&(0x80>>uint(x%8)) != 0
}

// screenY maps plot y to pixel row, ok=false outside window.
func screenY(w ui.WindowBounds, y float64) (int, bool) {
	if math.IsNaN(y) || math.IsInf(y, 0) || y < w.YMin || y > w.YMax {
		return 0, false
	}
	py := int(math.Round((w.YMax - y) / w.YStep))
	if py >= display.Height {
		py = display.Height - 1
	}
	return py, true
}

func screenX(w ui.WindowBounds, x float64) (int, bool) {
	if x < w.XMin || x > w.XMax {
		return 0, false
	}
	px := int(math.Round((x - w.XMin) / w.XStep))
	if px >= display.Width {
		px = display.Width - 1
	}
	return px, true
}

// DrawGraph plots axes and every non-empty equation as y=f(x).
// Points where evaluation fails are skipped.
func (self *Screen) DrawGraph(eqs []string, w ui.WindowBounds) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.blank()
	self.wantGraph = true

	if py, ok := screenY(w, 0); ok {
		for x := 0; x < display.Width; x++ {
			self.setPixel(x, py)
		}
	}
	if px, ok := screenX(w, 0); ok {
		for y := 0; y < display.Height; y++ {
			self.setPixel(px, y)
		}
	}

	for i, e := range eqs {
		if e == "" {
			continue
		}
		if self.eval == nil {
			self.Log.Errorf("screen graph evaluator=nil")
			break
		}
		fails := 0
		var lastErr error
		for px := 0; px < display.Width; px++ {
			x := w.XMin + float64(px)*w.XStep
			y, err := self.eval.Eval(e, x)
			if err != nil {
				fails++
				lastErr = err
				continue
			}
			if py, ok := screenY(w, y); ok {
				self.setPixel(px, py)
			}
		}
		if fails != 0 {
			self.Log.Debugf("screen graph %s=%q failed points=%d last=%v", equation.Slot(i).String(), e, fails, lastErr)
		}
	}
	return self.flush()
}
