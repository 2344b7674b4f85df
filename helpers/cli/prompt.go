// Package cli runs line-oriented command loop:
// interactive prompt on terminal, batch of lines from piped stdin.
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

type ExecFunc func(line string)
type CompleteFunc func(d prompt.Document) []prompt.Suggest

// MainLoop blocks until stdin is exhausted or interactive user quits.
// onSignal runs on SIGINT/SIGTERM/SIGHUP/SIGQUIT before exit.
func MainLoop(tag string, exec ExecFunc, complete CompleteFunc, onSignal func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		if onSignal != nil {
			onSignal()
		}
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(prompt.Executor(exec), prompt.Completer(complete),
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
		return
	}
	RunLines(os.Stdin, exec)
}

// RunLines executes each non-empty, non-comment line from r.
func RunLines(r io.Reader, exec ExecFunc) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exec(line)
	}
}

// Suggest filters words by current word prefix.
func Suggest(d prompt.Document, words []prompt.Suggest) []prompt.Suggest {
	return prompt.FilterHasPrefix(words, d.GetWordBeforeCursor(), true)
}
