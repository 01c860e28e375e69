package helpers

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/temoto/alive/v2"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	e1 := errors.New("first")
	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	assert.Equal(t, e1, FoldErrors([]error{nil, e1}))
	assert.EqualError(t, FoldErrors([]error{e1, errors.New("second")}), "first\nsecond")
}

func TestDurationDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 80*time.Millisecond, IntMillisecondDefault(-1, 80*time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, IntMillisecondDefault(5, 80*time.Millisecond))
}

func TestAliveSub(t *testing.T) {
	t.Parallel()

	root, leaf := alive.NewAlive(), alive.NewAlive()
	go AliveSub(root, leaf)
	root.Stop()
	select {
	case <-leaf.StopChan():
	case <-time.After(time.Second):
		t.Fatal("leaf not stopped")
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := Backoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond, K: 2}
	delays := []time.Duration{}
	for i := 0; i < 5; i++ {
		delays = append(delays, b.Failure())
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond,
		50 * time.Millisecond, 50 * time.Millisecond,
	}, delays)
	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.Failure())
}
