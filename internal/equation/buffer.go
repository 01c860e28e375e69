// Package equation keeps bounded text buffers edited by keypad:
// command line, six equation slots and function menu selection.
package equation

import (
	"github.com/juju/errors"
)

var (
	ErrFull       = errors.New("buffer full")
	ErrOutOfRange = errors.New("index out of range")
)

// Buffer is fixed capacity text. Insert at capacity is rejected,
// text is never truncated.
type Buffer struct {
	b []byte
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{b: make([]byte, 0, capacity)}
}

func (self *Buffer) Len() int       { return len(self.b) }
func (self *Buffer) Cap() int       { return cap(self.b) }
func (self *Buffer) String() string { return string(self.b) }
func (self *Buffer) Clear()         { self.b = self.b[:0] }

// Bytes is read-only view valid until next modification.
func (self *Buffer) Bytes() []byte { return self.b }

// InsertAt inserts ch before index i, i == Len() appends.
func (self *Buffer) InsertAt(i int, ch byte) error {
	if len(self.b) == cap(self.b) {
		return ErrFull
	}
	if i < 0 || i > len(self.b) {
		return errors.Annotatef(ErrOutOfRange, "insert index=%d len=%d", i, len(self.b))
	}
	self.b = self.b[:len(self.b)+1]
	copy(self.b[i+1:], self.b[i:])
	self.b[i] = ch
	return nil
}

// InsertString inserts s at i as a whole or returns ErrFull leaving buffer unchanged.
func (self *Buffer) InsertString(i int, s string) error {
	if len(self.b)+len(s) > cap(self.b) {
		return ErrFull
	}
	if i < 0 || i > len(self.b) {
		return errors.Annotatef(ErrOutOfRange, "insert index=%d len=%d", i, len(self.b))
	}
	n := len(self.b)
	self.b = self.b[:n+len(s)]
	copy(self.b[i+len(s):], self.b[i:n])
	copy(self.b[i:], s)
	return nil
}

func (self *Buffer) DeleteAt(i int) error {
	if i < 0 || i >= len(self.b) {
		return errors.Annotatef(ErrOutOfRange, "delete index=%d len=%d", i, len(self.b))
	}
	copy(self.b[i:], self.b[i+1:])
	self.b = self.b[:len(self.b)-1]
	return nil
}

// Set replaces content, ErrFull if s does not fit.
func (self *Buffer) Set(s string) error {
	if len(s) > cap(self.b) {
		return ErrFull
	}
	self.b = append(self.b[:0], s...)
	return nil
}
