package state_test

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/gcalc/hardware/keypad"
	state_new "github.com/temoto/gcalc/internal/state/new"
	"github.com/temoto/gcalc/internal/ui"
)

const confMatrix = `
hardware {
	display_bus { driver = "mock" clock_hz = 50000 submit_timeout_ms = 2000 }
	display { enable = true memory_size = 80 }
	keypad {
		driver = "matrix"
		poll_ms = 3600000
		rows = ["r0", "r1", "r2", "r3"]
		cols = ["c0", "c1", "c2", "c3", "c4"]
	}
}`

func TestHardwareMatrixToScreen(t *testing.T) {
	t.Parallel()

	ctx, g, banks := state_new.NewTestContext(t, confMatrix)
	defer func() {
		g.Alive.Stop()
		g.Alive.Wait()
	}()
	require.NoError(t, g.StartHardware(ctx))
	assert.NotEqual(t, 0, len(banks.Words()))

	u, err := g.UI()
	require.NoError(t, err)
	require.NoError(t, u.Redraw())
	src, err := g.Keypad()
	require.NoError(t, err)
	kp := &g.Hardware.Keypad
	require.NotNil(t, kp.MockMatrix)

	press := func(ch byte) {
		code, alt, ok := ui.CodeFor(ch)
		require.True(t, ok)
		require.False(t, alt)
		n := byte(len(g.Config.Hardware.Keypad.Cols))
		kp.MockMatrix.Press(int((code-1)/n), int((code-1)%n))
		kp.Poller.Tick()
		kp.MockMatrix.Release()
		kp.Poller.Tick()
	}
	for _, ch := range []byte("7+2") {
		press(ch)
	}
	assert.Equal(t, 3, kp.Queue.Len())
	assert.Equal(t, 3, u.Drain(src))
	assert.Equal(t, "7+2", u.Command())

	press(ui.KeyExecute)
	assert.Equal(t, 1, u.Drain(src))
	assert.Equal(t, "", u.Command())

	s, err := g.Screen()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.TextRow(0), "7+2 "), s.TextRow(0))

	link, err := g.DisplayLink()
	require.NoError(t, err)
	st := link.Stat()
	assert.Equal(t, uint64(len(banks.Words())), st.Sent)
	assert.Equal(t, uint64(0), st.Timeouts)
	assert.Equal(t, uint64(4*2), kp.Poller.Stat().Ticks)
}

func TestHardwareButton(t *testing.T) {
	t.Parallel()

	_, g, _ := state_new.NewTestContext(t, `
hardware {
	display_bus { driver = "mock" }
	keypad { driver = "button" button_code = 15 }
}`)
	src, err := g.Keypad()
	require.NoError(t, err)
	kp := &g.Hardware.Keypad
	require.NotNil(t, kp.MockButton)
	for i := 0; i < 5; i++ {
		kp.MockButton.Set(i < 3)
		kp.Poller.Tick()
	}
	code, ok := src.Next()
	assert.True(t, ok)
	assert.Equal(t, byte(15), code)
	_, ok = src.Next()
	assert.False(t, ok)
}

func TestHardwareKeypadMock(t *testing.T) {
	t.Parallel()

	_, g, _ := state_new.NewTestContext(t, `hardware { keypad { driver = "mock" queue_size = 2 } }`)
	src, err := g.Keypad()
	require.NoError(t, err)
	q := g.Hardware.Keypad.Queue
	assert.Equal(t, keypad.Source(q), src)
	assert.Equal(t, 2, q.Cap())
	assert.Nil(t, g.Hardware.Keypad.Poller)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert.Equal(t, []byte{2, 3}, q.Snapshot())
}

func TestHardwareDisplayDisabled(t *testing.T) {
	t.Parallel()

	_, g, _ := state_new.NewTestContext(t, `hardware { keypad { driver = "mock" } }`)
	d, err := g.Display()
	assert.NoError(t, err)
	assert.Nil(t, d)
	_, err = g.Screen()
	assert.True(t, errors.IsNotSupported(errors.Cause(err)), errors.ErrorStack(err))
	_, err = g.UI()
	assert.Error(t, err)
}

func TestHardwareButtonCodeZero(t *testing.T) {
	t.Parallel()

	_, g, _ := state_new.NewTestContext(t, `hardware {
	display_bus { driver = "mock" }
	keypad { driver = "button" }
}`)
	_, err := g.Keypad()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "button_code=0")
}
