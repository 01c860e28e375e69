package equation

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferInsertDelete(t *testing.T) {
	t.Parallel()

	b := NewBuffer(5)
	require.NoError(t, b.InsertAt(0, '2'))
	require.NoError(t, b.InsertAt(0, '7'))
	require.NoError(t, b.InsertAt(1, '+'))
	assert.Equal(t, "7+2", b.String())

	require.NoError(t, b.DeleteAt(1))
	assert.Equal(t, "72", b.String())
	err := b.DeleteAt(2)
	assert.Equal(t, ErrOutOfRange, errors.Cause(err))
	err = b.InsertAt(3, 'x')
	assert.Equal(t, ErrOutOfRange, errors.Cause(err))
	assert.Equal(t, "72", b.String())
}

func TestBufferFull(t *testing.T) {
	t.Parallel()

	b := NewBuffer(3)
	require.NoError(t, b.Set("abc"))
	assert.Equal(t, ErrFull, b.InsertAt(1, 'x'))
	assert.Equal(t, "abc", b.String())
	assert.Equal(t, 3, b.Len())

	assert.Equal(t, ErrFull, b.Set("abcd"))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 3, b.Cap())
}

func TestBufferInsertString(t *testing.T) {
	t.Parallel()

	b := NewBuffer(10)
	require.NoError(t, b.Set("1+2"))
	require.NoError(t, b.InsertString(2, "sin("))
	assert.Equal(t, "1+sin(2", b.String())
	assert.Equal(t, ErrFull, b.InsertString(0, "cos(x"))
	assert.Equal(t, "1+sin(2", b.String())
	assert.Equal(t, ErrOutOfRange, errors.Cause(b.InsertString(9, "x")))
}

func TestStore(t *testing.T) {
	t.Parallel()

	s := NewStore(0)
	assert.Equal(t, DefaultCapacity, s.Slot(SlotF).Cap())
	for i := 0; i < DefaultCapacity; i++ {
		require.NoError(t, s.InsertAt(SlotB, i, 'x'))
	}
	assert.Equal(t, ErrFull, s.InsertAt(SlotB, 0, 'y'))
	assert.Equal(t, DefaultCapacity, len(s.Read(SlotB)))
	assert.Equal(t, "", s.Read(SlotA))

	require.NoError(t, s.InsertAt(SlotE, 0, 'x'))
	assert.Equal(t, []Slot{SlotB, SlotE}, s.NonEmpty())
	require.NoError(t, s.DeleteAt(SlotE, 0))
	assert.Equal(t, ErrOutOfRange, errors.Cause(s.DeleteAt(SlotE, 0)))

	assert.Panics(t, func() { s.Slot(Slot(6)) })
}

func TestSlot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", SlotA.String())
	assert.Equal(t, "F", SlotF.String())
	assert.Equal(t, "Slot(9)", Slot(9).String())
	s, err := ParseSlot("c")
	require.NoError(t, err)
	assert.Equal(t, SlotC, s)
	_, err = ParseSlot("G")
	assert.True(t, errors.IsNotValid(err))
}
