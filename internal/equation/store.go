package equation

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	DefaultCapacity = 120
	SlotCount       = 6
)

// Slot addresses one of equations A..F.
type Slot uint8

const (
	SlotA Slot = iota
	SlotB
	SlotC
	SlotD
	SlotE
	SlotF
)

func (s Slot) Valid() bool { return s < SlotCount }

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", uint8(s))
	}
	return string(rune('A' + s))
}

func ParseSlot(s string) (Slot, error) {
	if len(s) == 1 {
		c := s[0] &^ 0x20 // upper case
		if c >= 'A' && c < 'A'+SlotCount {
			return Slot(c - 'A'), nil
		}
	}
	return 0, errors.NotValidf("equation slot %q", s)
}

type Store struct {
	slots [SlotCount]*Buffer
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	self := &Store{}
	for i := range self.slots {
		self.slots[i] = NewBuffer(capacity)
	}
	return self
}

// Slot returns buffer for direct editing. Panics on invalid slot,
// slot ids come from keymap not user text.
func (self *Store) Slot(s Slot) *Buffer {
	if !s.Valid() {
		panic("code error equation slot=" + s.String())
	}
	return self.slots[s]
}

func (self *Store) InsertAt(s Slot, i int, ch byte) error {
	return self.Slot(s).InsertAt(i, ch)
}

func (self *Store) DeleteAt(s Slot, i int) error {
	return self.Slot(s).DeleteAt(i)
}

func (self *Store) Read(s Slot) string { return self.Slot(s).String() }

// NonEmpty lists slots with text in A..F order.
func (self *Store) NonEmpty() []Slot {
	ss := make([]Slot, 0, SlotCount)
	for i, b := range self.slots {
		if b.Len() != 0 {
			ss = append(ss, Slot(i))
		}
	}
	return ss
}
