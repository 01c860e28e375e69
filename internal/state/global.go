package state

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/internal/calc"
	"github.com/temoto/gcalc/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Calc         *calc.Calc
	Config       *Config
	Hardware     hardware
	Log          *log2.Log
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
// Hardware is opened later, on first use.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	if err := cfg.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}
	if g.Calc == nil {
		g.Calc = calc.New(g.Log)
	}
	g.Log.Debugf("config: display_bus=%s keypad=%s", g.pinDriver(), cfg.Hardware.Keypad.Driver)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Errorf(errors.ErrorStack(err))
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.Alive.Stop()
		g.Log.Fatal(errors.ErrorStack(err))
	}
}
