package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop runs interactive prompt on terminal, otherwise executes stdin
// line by line. stop is called on signal or end of input.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, stop func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		stop()
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
	} else {
		ExecReader(os.Stdin, exec)
	}
	stop()
}

// ExecReader calls exec for every trimmed non-empty line.
func ExecReader(r io.Reader, exec func(line string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exec(line)
	}
}
