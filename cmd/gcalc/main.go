package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/gcalc/cmd/gcalc/subcmd"
	"github.com/temoto/gcalc/helpers"
	"github.com/temoto/gcalc/internal/state"
	state_new "github.com/temoto/gcalc/internal/state/new"
	"github.com/temoto/gcalc/internal/ui"
	"github.com/temoto/gcalc/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	{Name: "run", Usage: "calculator main loop", Main: runMain},
	{Name: "display-test", Usage: "init display and draw test screens", Main: displayTestMain},
	{Name: "keypad-test", Usage: "log keypad codes", Main: keypadTestMain},
	{Name: "version", Main: func(context.Context, *state.Config) error {
		fmt.Printf("gcalc %s\n", BuildVersion)
		return nil
	}},
}

func main() {
	flagset := flag.NewFlagSet("gcalc", flag.ContinueOnError)
	flagConfig := flagset.String("config", "gcalc.hcl", "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: gcalc [options] [command]\n\nOptions:\n")
		flagset.PrintDefaults()
		fmt.Fprintf(flagset.Output(), "\nCommands:\n")
		for _, m := range modules {
			fmt.Fprintf(flagset.Output(), "  %-14s %s\n", m.Name, m.Usage)
		}
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	command := "run"
	if flagset.NArg() > 0 {
		command = flagset.Arg(0)
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		flagset.Usage()
		log.Fatal(err)
	}

	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, no timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	ctx, g := state_new.NewContext(log)
	g.BuildVersion = BuildVersion
	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// stopOnSignal stops g.Alive on first signal and cancels returned context.
func stopOnSignal(ctx context.Context, g *state.Global) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case sig := <-sigch:
			g.Log.Infof("signal=%v stopping", sig)
			g.Alive.Stop()
		case <-g.Alive.StopChan():
		}
		cancel()
	}()
	return ctx
}

func runMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	ctx = stopOnSignal(ctx, g)

	if err := g.StartHardware(ctx); err != nil {
		return errors.Annotate(err, "hardware")
	}
	u, err := g.UI()
	if err != nil {
		return err
	}
	src, err := g.Keypad()
	if err != nil {
		return err
	}
	go watchdog(g)

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Infof("gcalc version=%s running", g.BuildVersion)
	err = u.Loop(ctx, src, 0)
	g.Alive.Stop()
	g.Alive.Wait()
	if errors.Cause(err) == context.Canceled {
		return nil
	}
	return err
}

// watchdog pets systemd while display clock keeps ticking.
func watchdog(g *state.Global) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		g.Error(err, "sd watchdog")
		return
	}
	if interval == 0 {
		return
	}
	link, err := g.DisplayLink()
	if err != nil {
		return
	}
	tmr := time.NewTicker(interval / 2)
	defer tmr.Stop()
	lastTicks := link.Stat().Ticks
	stopch := g.Alive.StopChan()
	for {
		select {
		case <-tmr.C:
			ticks := link.Stat().Ticks
			if ticks == lastTicks {
				g.Log.Errorf("display clock stalled ticks=%d", ticks)
				continue
			}
			lastTicks = ticks
			subcmd.SdNotify(daemon.SdNotifyWatchdog)
		case <-stopch:
			return
		}
	}
}

func displayTestMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	ctx = stopOnSignal(ctx, g)
	defer g.Alive.Wait()
	defer g.Alive.Stop()

	if err := g.StartHardware(ctx); err != nil {
		return errors.Annotate(err, "hardware")
	}
	s, err := g.Screen()
	if err != nil {
		return err
	}
	link, err := g.DisplayLink()
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		f    func() error
	}{
		{"command-line", func() error {
			if err := s.PrintCommandOutput("gcalc display test"); err != nil {
				return err
			}
			return s.DrawCommandLine("sin(x)*3", 8)
		}},
		{"functions", func() error { return s.DrawFunctionMenu(ui.DefaultFunctions, "", 0) }},
		{"equations", func() error {
			return s.DrawEquationList([]string{"sin(x)", "x^2/4", "", "", "", ""})
		}},
		{"graph", func() error {
			return s.DrawGraph([]string{"sin(x)*3", "x^2/4", "", "", "", ""}, ui.DefaultWindow())
		}},
	}
	for _, step := range steps {
		begin := time.Now()
		if err := step.f(); err != nil {
			return errors.Annotate(err, step.name)
		}
		st := link.Stat()
		g.Log.Infof("display-test %s duration=%s sent=%d timeouts=%d", step.name, time.Since(begin), st.Sent, st.Timeouts)
		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func keypadTestMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	ctx = stopOnSignal(ctx, g)
	defer g.Alive.Wait()
	defer g.Alive.Stop()

	// keypad only, display stays untouched
	src, err := g.Keypad()
	if err != nil {
		return err
	}
	// readers get own alive so their goroutines are joined before exit
	kpAlive := alive.NewAlive()
	go helpers.AliveSub(g.Alive, kpAlive)
	defer kpAlive.Wait()
	defer kpAlive.Stop()
	kp := &g.Hardware.Keypad
	if kp.Poller != nil {
		if err := kp.Poller.Run(kpAlive); err != nil {
			return err
		}
	}
	if kp.DevInput != nil {
		if err := kp.DevInput.Run(kpAlive); err != nil {
			return err
		}
	}
	g.Log.Infof("keypad-test press keys, ctrl+c to stop")
	tmr := time.NewTicker(10 * time.Millisecond)
	defer tmr.Stop()
	for {
		select {
		case <-tmr.C:
			for code, ok := src.Next(); ok; code, ok = src.Next() {
				g.Log.Infof("code=%d key=%s alt=%s", code,
					ui.KeyName(ui.Decode(code, false)), ui.KeyName(ui.Decode(code, true)))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
