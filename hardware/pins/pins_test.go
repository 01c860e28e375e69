package pins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpio "github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
)

func TestSplitJoin(t *testing.T) {
	t.Parallel()

	cases := []struct {
		b     byte
		bankB byte
		bankD byte
	}{
		{0x00, 0, 0},
		{0xff, BDB7 | BDB6, 0xfc},
		{0x80, BDB7, 0},
		{0x40, BDB6, 0},
		{0x01, 0, 0x04},
		{0x20, 0, 0x80},
		{0x59, BDB6, 0x64},
	}
	for _, c := range cases {
		b, d := SplitByte(c.b)
		assert.Equal(t, c.bankB, b, "byte=%02x", c.b)
		assert.Equal(t, c.bankD, d, "byte=%02x", c.b)
		assert.Equal(t, c.b, JoinByte(b|BClock|BA0|BLED, d))
	}
	for i := 0; i < 256; i++ {
		b, d := SplitByte(byte(i))
		require.Equal(t, byte(i), JoinByte(b, d))
	}
}

func TestPinMapRequired(t *testing.T) {
	t.Parallel()

	pm := PinMap{Clock: "1", A0: "2", DB7: "3", DB6: "4", DB5: "5", DB4: "6", DB3: "7", DB2: "8", DB1: "9"}
	_, err := pm.signals()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db0")

	pm.DB0 = "10"
	sigs, err := pm.signals()
	require.NoError(t, err)
	assert.Len(t, sigs, 10)
}

func TestCdevBanks(t *testing.T) {
	t.Parallel()

	pm := PinMap{Clock: "1", A0: "2", LED: "3",
		DB7: "10", DB6: "11", DB5: "12", DB4: "13", DB3: "14", DB2: "15", DB1: "16", DB0: "17"}
	offsets := []uint32{1, 2, 3, 10, 11, 12, 13, 14, 15, 16, 17}
	values := make(map[uint32]byte)

	chip := new(gpio_mock.MockChip)
	lines := new(gpio_mock.MockLines)
	args := []interface{}{gpio.GPIOHANDLE_REQUEST_OUTPUT, "gcalc-bus"}
	for _, o := range offsets {
		args = append(args, o)
	}
	chip.On("OpenLines", args...).Return(lines, nil)
	for _, o := range offsets {
		o := o
		lines.On("SetFunc", o).Return(gpio.LineSetFunc(func(v byte) { values[o] = v }))
	}
	lines.On("Flush").Return(nil)

	banks, err := NewCdevBanks(chip, pm)
	require.NoError(t, err)

	bankB, bankD := SplitByte(0xa5)
	require.NoError(t, banks.WriteFrame(Frame{B: bankB | BClock | BA0, D: bankD, Latch: true}))
	expect := map[uint32]byte{1: 1, 2: 1, 3: 0, 10: 1, 11: 0, 12: 1, 13: 0, 14: 0, 15: 1, 16: 0, 17: 1}
	assert.Equal(t, expect, values)
	lines.AssertNumberOfCalls(t, "Flush", 1)
	chip.AssertExpectations(t)
}

func TestCdevLinesRead(t *testing.T) {
	t.Parallel()

	chip := new(gpio_mock.MockChip)
	lines := new(gpio_mock.MockLines)
	chip.On("OpenLines", gpio.GPIOHANDLE_REQUEST_INPUT, "gcalc-cols", uint32(20), uint32(21)).Return(lines, nil)
	data := gpio.HandleData{}
	data.Values[1] = 1
	lines.On("Read").Return(data, nil)

	cl, err := NewCdevLines(chip, gpio.GPIOHANDLE_REQUEST_INPUT, "cols", []string{"20", "21"})
	require.NoError(t, err)
	v, err := cl.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, v)
	assert.Error(t, cl.SetLines([]byte{1, 1}))
	lines.AssertNotCalled(t, "Flush")
}

func TestMockMatrix(t *testing.T) {
	t.Parallel()

	m := NewMockMatrix(2, 3)
	m.Press(1, 2)
	require.NoError(t, m.Rows().SetLines([]byte{1, 0}))
	v, _ := m.Cols().ReadLines()
	assert.Equal(t, []byte{0, 0, 0}, v)
	require.NoError(t, m.Rows().SetLines([]byte{0, 1}))
	v, _ = m.Cols().ReadLines()
	assert.Equal(t, []byte{0, 0, 1}, v)
	m.Release()
	v, _ = m.Cols().ReadLines()
	assert.Equal(t, []byte{0, 0, 0}, v)
}
