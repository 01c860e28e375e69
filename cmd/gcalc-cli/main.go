// Developer console: feeds keys into mock keypad, runs real UI and screen
// over simulated display bus and prints what display shows.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/keypad"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers/cli"
	"github.com/temoto/gcalc/internal/screen"
	"github.com/temoto/gcalc/internal/state"
	state_new "github.com/temoto/gcalc/internal/state/new"
	"github.com/temoto/gcalc/internal/ui"
	"github.com/temoto/gcalc/log2"
)

const defaultConfig = `
hardware {
	display { enable = true memory_size = 80 }
	display_bus { clock_hz = 100000 submit_timeout_ms = 1000 }
}`

var log = log2.NewStderr(log2.LInfo)

type console struct {
	g     *state.Global
	ui    *ui.UI
	scr   *screen.Screen
	q     *keypad.Queue
	banks *pins.MockBanks
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "", "hcl config, hardware drivers are replaced with mock")
	flagDebug := cmdline.Bool("debug", false, "")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)
	if *flagDebug {
		log.SetLevel(log2.LDebug)
	}

	var config *state.Config
	if *flagConfig != "" {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	} else {
		config = state.MustReadConfig(log, state.NewMockFullReader(map[string]string{"default": defaultConfig}), "default")
	}
	config.Hardware.DisplayBus.Driver = state.DriverMock
	config.Hardware.Keypad.Driver = state.DriverMock
	config.Hardware.Display.Enable = true

	ctx, g := state_new.NewContext(log)
	g.MustInit(ctx, config)
	c, err := newConsole(ctx, g)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	cli.MainLoop("gcalc-cli", c.exec, c.complete, func() {
		g.Alive.Stop()
		g.Alive.Wait()
	})
}

func newConsole(ctx context.Context, g *state.Global) (*console, error) {
	if err := g.StartHardware(ctx); err != nil {
		return nil, err
	}
	c := &console{g: g, q: g.Hardware.Keypad.Queue}
	c.banks, _ = g.Hardware.DisplayBus.Writer.(*pins.MockBanks)
	var err error
	if c.scr, err = g.Screen(); err != nil {
		return nil, err
	}
	if c.ui, err = g.UI(); err != nil {
		return nil, err
	}
	return c, c.ui.Redraw()
}

var suggests = []prompt.Suggest{
	{Text: "keys", Description: "keys TEXT: type characters, alt is toggled as needed"},
	{Text: "key", Description: "key NAME...: exec del alt cmd graph func menu eqlist eqA..eqF < >"},
	{Text: "code", Description: "code N...: push raw keypad codes 1..20"},
	{Text: "screen", Description: "print display text layer"},
	{Text: "state", Description: "print UI state"},
	{Text: "stat", Description: "display bus and keypad counters"},
}

func (c *console) complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

func (c *console) exec(line string) {
	if err := c.run(line); err != nil {
		log.Error(err)
	}
}

func (c *console) run(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "keys":
		if len(args) == 0 {
			return errors.NotValidf("keys without text")
		}
		return c.typeKeys([]byte(strings.Join(args, " "))...)

	case "key":
		keys := make([]byte, 0, len(args))
		for _, name := range args {
			ch, ok := ui.ParseKeyName(name)
			if !ok {
				return errors.NotFoundf("key=%s", name)
			}
			keys = append(keys, ch)
		}
		return c.typeKeys(keys...)

	case "code":
		for _, s := range args {
			n, err := strconv.ParseUint(s, 0, 8)
			if err != nil {
				return errors.Annotatef(err, "code=%s", s)
			}
			c.q.Push(byte(n))
		}
		c.drain()

	case "screen":
		for r := 0; r < screen.Rows; r++ {
			fmt.Printf("%2d|%s|\n", r, c.scr.TextRow(r))
		}

	case "state":
		s := c.ui.State()
		fmt.Printf("mode=%s previous=%s cursor=%d index=%d alt=%t paste=%s eq=%s %s\n",
			s.Mode.String(), s.PreviousMode.String(), s.TextCursor, s.BufferIndex,
			s.AltActive, s.PendingPaste.String(), s.CurrentEquation.String(), s.Window.String())
		fmt.Printf("command=%q\n", c.ui.Command())

	case "stat":
		link, err := c.g.DisplayLink()
		if err != nil {
			return err
		}
		st := link.Stat()
		fmt.Printf("bus ticks=%d sent=%d commands=%d timeouts=%d write_errors=%d indicator=%t\n",
			st.Ticks, st.Sent, st.Commands, st.Timeouts, st.WriteErrors, link.Indicator())
		fmt.Printf("keypad queue=%d/%d dropped=%d\n", c.q.Len(), c.q.Cap(), c.q.Dropped())
		if c.banks != nil {
			fmt.Printf("mock bus frames=%d words=%d\n", c.banks.Count(), len(c.banks.Words()))
		}

	default:
		return errors.NotSupportedf("command=%s", cmd)
	}
	return nil
}

func (c *console) typeKeys(keys ...byte) error {
	altCode, _, _ := ui.CodeFor(ui.KeyAlt)
	alt := c.ui.State().AltActive
	for _, k := range keys {
		code, needAlt, ok := ui.CodeFor(k)
		if !ok {
			return errors.NotFoundf("no keypad code for %s", ui.KeyName(k))
		}
		if alt != needAlt {
			c.q.Push(altCode)
			alt = needAlt
		}
		c.q.Push(code)
	}
	if alt {
		c.q.Push(altCode)
	}
	c.drain()
	return nil
}

func (c *console) drain() {
	n := c.ui.Drain(c.q)
	log.Debugf("handled keys=%d", n)
}
