// Sorry, workaround to import cycles.
package state_new

import (
	"context"
	"os"
	"testing"

	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/internal/state"
	"github.com/temoto/gcalc/log2"
)

func NewContext(log *log2.Log) (context.Context, *state.Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &state.Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, state.ContextKey, g)

	return ctx, g
}

// NewTestContext reads inline config and puts mock banks on display bus,
// so any display_bus driver in confString is ignored.
func NewTestContext(t testing.TB, confString string) (context.Context, *state.Global, *pins.MockBanks) {
	fs := state.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("gcalc_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	g.BuildVersion = "test"
	g.MustInit(ctx, state.MustReadConfig(log, fs, "test-inline"))

	banks := new(pins.MockBanks)
	g.Hardware.DisplayBus.Writer = banks
	if _, err := g.DisplayLink(); err != nil {
		t.Fatal(err)
	}
	return ctx, g, banks
}
