package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/abrezinsky/f1bet/internal/logger"
)

// tablePrinter prints contest tables to the console
type tablePrinter interface {
	PrintRaces(ctx context.Context, w io.Writer) error
	PrintRanking(ctx context.Context, w io.Writer) error
	PrintHistory(ctx context.Context, w io.Writer) error
}

type pageOpener interface {
	Open(path string) error
}

type keyboard struct {
	out   io.Writer
	app   tablePrinter
	pages pageOpener
	log   logger.Logger
}

// listen reads single keys from fd in raw mode until a quit key is pressed
func (k *keyboard) listen(fd int, quit chan<- struct{}) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		k.log.Debug("Keyboard shortcuts unavailable", "error", err)
		return
	}

	in := os.NewFile(uintptr(fd), "stdin")
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil {
			term.Restore(fd, state)
			return
		}
		if n == 0 {
			continue
		}
		if !k.handle(buf[0]) {
			fmt.Fprintf(k.out, "%sShutting down...%s\n", yellow, reset)
			term.Restore(fd, state)
			close(quit)
			return
		}
	}
}

// handle performs the action bound to key. It returns false when the key
// asks to quit.
func (k *keyboard) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "o":
		fmt.Fprintf(k.out, "%sOpening client in browser...%s\n", cyan, reset)
		if err := k.pages.Open("/"); err != nil {
			fmt.Fprintf(k.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "r":
		k.print(k.app.PrintRaces)
	case "k":
		k.print(k.app.PrintRanking)
	case "p":
		k.print(k.app.PrintHistory)
	case "h":
		if k.log.IsHTTPLoggingEnabled() {
			k.log.DisableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			k.log.EnableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		next := logger.NextLevel(k.log.GetLevel())
		k.log.SetLevel(next)
		fmt.Fprintf(k.out, "%sLog level: %s%s%s\n", green, yellow, strings.ToLower(next.String()), reset)
	case "?":
		printKeyboardHelp(k.out)
	case "q", "\x03": // Ctrl+C arrives as a byte in raw mode
		return false
	}
	return true
}

func (k *keyboard) print(fn func(ctx context.Context, w io.Writer) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fn(ctx, k.out); err != nil {
		fmt.Fprintf(k.out, "%sBackend request failed: %v%s\n", red, err, reset)
	}
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(out, "    %so%s      - Open the client in the browser\n", cyan, reset)
	fmt.Fprintf(out, "    %sr%s      - Print the race calendar\n", cyan, reset)
	fmt.Fprintf(out, "    %sk%s      - Print the ranking\n", cyan, reset)
	fmt.Fprintf(out, "    %sp%s      - Print my prediction history\n", cyan, reset)
	fmt.Fprintf(out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(out, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(out, "    %sq%s      - Quit\n", cyan, reset)
	fmt.Fprintf(out, "    %s?%s      - Show this help\n\n", cyan, reset)
}
