// Package pins maps logical display bus and keypad signals to GPIO lines.
//
// Display bus is two output banks, B and D, updated together once per clock
// tick. Bank B carries control signals and two high data bits, bank D
// carries the six low data bits shifted up by two.
package pins

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
)

// Bank B layout.
const (
	BLED   byte = 0x20 // alt function indicator
	BReset byte = 0x10
	BClock byte = 0x08
	BA0    byte = 0x04 // 1=command 0=data/parameter
	BDB7   byte = 0x02
	BDB6   byte = 0x01

	// data and select lines, everything that idle pattern drives low
	BBusMask byte = BA0 | BDB7 | BDB6
)

// Bank D: DB5..DB0 on bits 7..2.
const (
	DShift   = 2
	DBusMask = 0xfc
)

// Frame is output state of both banks after one clock tick.
// Latch is set when the tick put a new byte on data lines.
type Frame struct {
	B, D  byte
	Latch bool
}

func (f Frame) Clock() bool     { return f.B&BClock != 0 }
func (f Frame) IsCommand() bool { return f.B&BA0 != 0 }
func (f Frame) Byte() byte      { return JoinByte(f.B, f.D) }

func (f Frame) String() string {
	return fmt.Sprintf("B=%08b D=%08b latch=%t", f.B, f.D, f.Latch)
}

// Word is one byte as seen by display controller.
type Word struct {
	IsCommand bool
	Byte      byte
}

func (w Word) String() string {
	if w.IsCommand {
		return fmt.Sprintf("C%02x", w.Byte)
	}
	return fmt.Sprintf("D%02x", w.Byte)
}

// BankWriter drives bus lines. Implementations must not block,
// WriteFrame is called from clock tick.
type BankWriter interface {
	WriteFrame(f Frame) error
}

// LineWriter drives a group of output lines, one value per line.
type LineWriter interface {
	SetLines(values []byte) error
}

// LineReader samples a group of input lines, one value per line.
type LineReader interface {
	ReadLines() ([]byte, error)
}

// SplitByte returns bank bits for data byte b, without control bits.
func SplitByte(b byte) (bankB, bankD byte) {
	if b&0x80 != 0 {
		bankB |= BDB7
	}
	if b&0x40 != 0 {
		bankB |= BDB6
	}
	bankD = (b & 0x3f) << DShift
	return
}

func JoinByte(bankB, bankD byte) byte {
	b := (bankD & DBusMask) >> DShift
	if bankB&BDB7 != 0 {
		b |= 0x80
	}
	if bankB&BDB6 != 0 {
		b |= 0x40
	}
	return b
}

// PinMap assigns line offsets to bus signals. Empty means not connected.
type PinMap struct {
	Clock  string `hcl:"clock"`
	A0     string `hcl:"a0"`
	Strobe string `hcl:"strobe"`
	Reset  string `hcl:"reset"`
	LED    string `hcl:"led"`
	DB7    string `hcl:"db7"`
	DB6    string `hcl:"db6"`
	DB5    string `hcl:"db5"`
	DB4    string `hcl:"db4"`
	DB3    string `hcl:"db3"`
	DB2    string `hcl:"db2"`
	DB1    string `hcl:"db1"`
	DB0    string `hcl:"db0"`
}

const (
	bankB = iota
	bankD
	bankStrobe
)

type signal struct {
	name string
	pin  string
	bank int
	mask byte
}

func (pm *PinMap) signals() ([]signal, error) {
	all := []signal{
		{"clock", pm.Clock, bankB, BClock},
		{"a0", pm.A0, bankB, BA0},
		{"strobe", pm.Strobe, bankStrobe, 1},
		{"reset", pm.Reset, bankB, BReset},
		{"led", pm.LED, bankB, BLED},
		{"db7", pm.DB7, bankB, BDB7},
		{"db6", pm.DB6, bankB, BDB6},
		{"db5", pm.DB5, bankD, 1 << (5 + DShift)},
		{"db4", pm.DB4, bankD, 1 << (4 + DShift)},
		{"db3", pm.DB3, bankD, 1 << (3 + DShift)},
		{"db2", pm.DB2, bankD, 1 << (2 + DShift)},
		{"db1", pm.DB1, bankD, 1 << (1 + DShift)},
		{"db0", pm.DB0, bankD, 1 << (0 + DShift)},
	}
	result := make([]signal, 0, len(all))
	for _, s := range all {
		if s.pin == "" {
			switch s.name {
			case "strobe", "reset", "led":
				continue
			}
			return nil, errors.NotValidf("pinmap %s=empty", s.name)
		}
		result = append(result, s)
	}
	return result, nil
}

func (s signal) level(f Frame) byte {
	var v bool
	switch s.bank {
	case bankB:
		v = f.B&s.mask != 0
	case bankD:
		v = f.D&s.mask != 0
	case bankStrobe:
		v = f.Latch
	}
	if v {
		return 1
	}
	return 0
}

func parseLine(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Annotatef(err, "line=%s must be number", s)
	}
	return uint32(x), nil
}
