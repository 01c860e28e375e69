package keypad

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/log2"
	"github.com/temoto/inputevent-go"
)

func TestQueueDropOldest(t *testing.T) {
	t.Parallel()

	q := NewQueue(3)
	assert.False(t, q.Push(1))
	assert.False(t, q.Push(2))
	assert.False(t, q.Push(3))
	assert.True(t, q.Push(4))
	assert.Equal(t, []byte{2, 3, 4}, q.Snapshot())
	assert.Equal(t, uint32(1), q.Dropped())

	for i := 5; i < 100; i++ {
		q.Push(byte(i))
		assert.Equal(t, 3, q.Len())
	}
	assert.Equal(t, []byte{97, 98, 99}, q.Snapshot())

	b, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, byte(97), b)
	q.Push(100)
	assert.Equal(t, []byte{98, 99, 100}, q.Snapshot())
	q.Clear()
	_, ok = q.Next()
	assert.False(t, ok)
}

func TestQueueDefaultSize(t *testing.T) {
	t.Parallel()

	q := NewQueue(0)
	assert.Equal(t, DefaultQueueSize, q.Cap())
	for i := 0; i < DefaultQueueSize+10; i++ {
		q.Push(byte(i % 20))
	}
	assert.Equal(t, DefaultQueueSize, q.Len())
	assert.Equal(t, uint32(10), q.Dropped())
}

func TestQueueConcurrent(t *testing.T) {
	t.Parallel()

	const N = 10000
	q := NewQueue(N)
	done := make(chan struct{})
	go func() {
		for i := 0; i < N; i++ {
			q.Push(byte(i))
		}
		close(done)
	}()
	got := 0
	for got < N {
		if b, ok := q.Pop(); ok {
			require.Equal(t, byte(got), b)
			got++
		}
	}
	<-done
	assert.Equal(t, 0, q.Len())
}

func TestDebounceSustainedPress(t *testing.T) {
	t.Parallel()

	for _, k := range []int{1, 2, 5, 50} {
		var d Debouncer
		d.Tick(false)
		events := 0
		for i := 0; i < k; i++ {
			d.Tick(true)
			if d.Consume() {
				events++
			}
		}
		d.Tick(false)
		if d.Consume() {
			events++
		}
		assert.Equal(t, 1, events, "k=%d", k)
	}
}

func TestDebounceUnreadPress(t *testing.T) {
	t.Parallel()

	var d Debouncer
	d.Tick(true)
	d.Tick(true)
	d.Tick(false)
	assert.Equal(t, DebounceState{Raw: false, StableEvent: true}, d.State())
	assert.True(t, d.Consume())
	assert.Equal(t, DebounceState{Consumed: true}, d.State())
	assert.False(t, d.Consume())

	d.Tick(true)
	assert.Equal(t, DebounceState{Raw: true, StableEvent: true}, d.State())
	assert.True(t, d.Consume())
}

func TestMatrix(t *testing.T) {
	t.Parallel()

	mm := pins.NewMockMatrix(4, 5)
	q := NewQueue(8)
	m := NewMatrix(mm.Rows(), 4, mm.Cols(), q)

	tick := func() { require.NoError(t, m.Tick()) }
	tick()
	assert.Equal(t, 0, q.Len())

	mm.Press(0, 0)
	tick()
	tick() // held
	tick()
	mm.Release()
	tick()
	mm.Press(0, 0)
	tick()
	mm.Press(3, 4)
	tick()
	mm.Press(1, 2)
	tick()
	assert.Equal(t, []byte{1, 1, 20, 8}, q.Snapshot())
}

func TestMatrixRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	mm := pins.NewMockMatrix(5, 5)
	q := NewQueue(8)
	m := NewMatrix(mm.Rows(), 5, mm.Cols(), q)
	mm.Press(4, 1) // code 22
	require.NoError(t, m.Tick())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint32(1), m.Rejected())
	assert.False(t, ValidCode(0))
	assert.True(t, ValidCode(20))
	assert.False(t, ValidCode(21))
}

type failReader struct{}

func (failReader) ReadLines() ([]byte, error) { return nil, errors.New("line broken") }

func TestButtonAndPoller(t *testing.T) {
	t.Parallel()

	line := &pins.MockLevel{}
	b := NewButton(line, 15)
	p := NewPoller(log2.NewTest(t, log2.LDebug), time.Millisecond, b)
	p.Tick()
	_, ok := b.Next()
	assert.False(t, ok)

	line.Set(true)
	p.Tick()
	p.Tick()
	code, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, byte(15), code)
	_, ok = b.Next()
	assert.False(t, ok)

	s := p.Stat()
	assert.Equal(t, uint64(3), s.Ticks)
	assert.Equal(t, uint64(0), s.Errors)
	assert.False(t, s.LastTick.IsZero())

	bad := NewButton(failReader{}, 1)
	p2 := NewPoller(log2.NewTest(t, log2.LDebug), 0, bad)
	assert.Equal(t, DefaultPollPeriod, p2.Period())
	p2.Tick()
	p2.Tick()
	assert.Equal(t, uint64(2), p2.Stat().Errors)
}

func TestPollerRun(t *testing.T) {
	t.Parallel()

	line := &pins.MockLevel{}
	b := NewButton(line, 7)
	p := NewPoller(log2.NewTest(t, log2.LDebug), time.Millisecond, b)
	a := alive.NewAlive()
	require.NoError(t, p.Run(a))
	line.Set(true)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if code, ok := b.Next(); ok {
			assert.Equal(t, byte(7), code)
			break
		}
		require.True(t, time.Now().Before(deadline), "no press event")
		time.Sleep(time.Millisecond)
	}
	a.Stop()
	a.Wait()
	assert.Error(t, p.Run(a))
}

func encodeEvents(t testing.TB, es ...inputevent.InputEvent) io.ReadCloser {
	var buf bytes.Buffer
	for _, e := range es {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, e))
	}
	return ioutil.NopCloser(&buf)
}

func TestDevInput(t *testing.T) {
	t.Parallel()

	key := func(code uint16, state inputevent.KeyEventState) inputevent.InputEvent {
		return inputevent.InputEvent{Type: inputevent.EV_KEY, Code: code, Value: int32(state)}
	}
	r := encodeEvents(t,
		key(inputevent.KEY_7, inputevent.KeyStateDown),
		key(inputevent.KEY_7, inputevent.KeyStateHold),
		key(inputevent.KEY_7, inputevent.KeyStateUp),
		inputevent.InputEvent{Type: inputevent.EV_SYN},
		key(inputevent.KEY_A, inputevent.KeyStateUp), // unmapped
		key(inputevent.KEY_ENTER, inputevent.KeyStateUp),
	)
	q := NewQueue(4)
	d := NewDevInput(r, q, log2.NewTest(t, log2.LDebug))
	require.NoError(t, d.ReadOne())
	require.NoError(t, d.ReadOne())
	assert.Error(t, d.ReadOne())

	code, ok := d.Next()
	assert.True(t, ok)
	assert.Equal(t, byte(7), code)
	code, _ = d.Next()
	assert.Equal(t, byte(17), code)
}

func TestDevInputReopen(t *testing.T) {
	t.Parallel()

	up := func(code uint16) inputevent.InputEvent {
		return inputevent.InputEvent{Type: inputevent.EV_KEY, Code: code, Value: int32(inputevent.KeyStateUp)}
	}
	q := NewQueue(4)
	d := NewDevInput(encodeEvents(t, up(inputevent.KEY_1)), q, log2.NewTest(t, log2.LDebug))
	d.Backoff = helpers.Backoff{Min: time.Millisecond, Max: 5 * time.Millisecond, K: 2}
	opens := int32(0)
	d.Reopen = func() (io.ReadCloser, error) {
		if atomic.AddInt32(&opens, 1) == 1 {
			return encodeEvents(t, up(inputevent.KEY_2)), nil
		}
		return nil, errors.NotFoundf("device")
	}
	a := alive.NewAlive()
	require.NoError(t, d.Run(a))

	deadline := time.Now().Add(5 * time.Second)
	for q.Len() < 2 || atomic.LoadInt32(&opens) < 2 {
		require.True(t, time.Now().Before(deadline), "queue=%v opens=%d", q.Snapshot(), atomic.LoadInt32(&opens))
		time.Sleep(time.Millisecond)
	}
	a.Stop()
	a.Wait()
	assert.Equal(t, []byte{1, 2}, q.Snapshot())
}
