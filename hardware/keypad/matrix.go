package keypad

import (
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/pins"
)

const (
	CodeNone byte = 0
	CodeMin  byte = 1
	CodeMax  byte = 20
)

func ValidCode(code byte) bool { return code >= CodeMin && code <= CodeMax }

// Matrix scans row/column keypad. Row lines are driven one at a time,
// column lines are read back. Pressed key code = row*ncols + col + 1.
// A code equal to previous scan is still held and not enqueued again.
type Matrix struct {
	rejected uint32
	rows     pins.LineWriter
	cols     pins.LineReader
	nrow     int
	q        *Queue
	prev     byte
	drive    []byte
}

func NewMatrix(rows pins.LineWriter, nrow int, cols pins.LineReader, q *Queue) *Matrix {
	return &Matrix{
		rows:  rows,
		cols:  cols,
		nrow:  nrow,
		q:     q,
		drive: make([]byte, nrow),
	}
}

func (self *Matrix) String() string { return "matrix" }

// Scan returns code of first pressed key or CodeNone.
func (self *Matrix) Scan() (byte, error) {
	code := CodeNone
	for r := 0; r < self.nrow; r++ {
		for i := range self.drive {
			self.drive[i] = 0
		}
		self.drive[r] = 1
		if err := self.rows.SetLines(self.drive); err != nil {
			return CodeNone, errors.Annotatef(err, "matrix row=%d", r)
		}
		cols, err := self.cols.ReadLines()
		if err != nil {
			return CodeNone, errors.Annotatef(err, "matrix row=%d read", r)
		}
		for c, v := range cols {
			if v != 0 && code == CodeNone {
				code = byte(r*len(cols) + c + 1)
			}
		}
	}
	for i := range self.drive {
		self.drive[i] = 0
	}
	if err := self.rows.SetLines(self.drive); err != nil {
		return CodeNone, errors.Annotate(err, "matrix release rows")
	}
	return code, nil
}

// Tick scans, validates and enqueues new press.
func (self *Matrix) Tick() error {
	code, err := self.Scan()
	if err != nil {
		return err
	}
	prev := self.prev
	self.prev = code
	if code == prev || code == CodeNone {
		return nil
	}
	if !ValidCode(code) {
		atomic.AddUint32(&self.rejected, 1)
		return nil
	}
	self.q.Push(code)
	return nil
}

func (self *Matrix) Rejected() uint32 { return atomic.LoadUint32(&self.rejected) }
