package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/abrezinsky/f1bet/internal/app"
	"github.com/abrezinsky/f1bet/internal/browser"
	"github.com/abrezinsky/f1bet/internal/config"
	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/pkg/f1api"
	"github.com/abrezinsky/f1bet/web"
)

// ANSI escape codes
const (
	clearLine = "\033[2K"
	moveUp    = "\033[%dA"
	reset     = "\033[0m"
	yellow    = "\033[33m"
	red       = "\033[31m"
	green     = "\033[32m"
	cyan      = "\033[36m"
	bold      = "\033[1m"
)

var (
	version = "dev"
)

// showStartupBanner prints the logo followed by the start lights sequence
func showStartupBanner(out io.Writer, animate bool) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		"          _____ _   ____       _                        ",
		"         |  ___/ | | __ )  ___| |_                      ",
		"         | |_  | | |  _ \\ / _ \\ __|                     ",
		"         |  _| | | | |_) |  __/ |_                      ",
		"         |_|   |_| |____/ \\___|\\__|                     ",
		"                                                        ",
	}

	fmt.Fprintf(out, "\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Fprintf(out, "  %s║%s%-62s%s║%s\n", cyan, yellow, line, cyan, reset)
	}

	if !animate {
		fmt.Fprintf(out, "  %s╚%s╝%s\n\n", cyan, border, reset)
		return
	}

	fmt.Fprintf(out, "  %s╠%s╣%s\n", cyan, border, reset)
	lights := func(on int, color string) string {
		var b strings.Builder
		for i := 0; i < 5; i++ {
			if i < on {
				b.WriteString(color + " ● " + reset)
			} else {
				b.WriteString(" ○ ")
			}
		}
		return b.String()
	}
	// 5 lights x 3 columns
	pad := strings.Repeat(" ", (width-15)/2)
	fmt.Fprintf(out, "  %s║%s%s%s %s║%s\n", cyan, pad, lights(0, red), pad, cyan, reset)
	fmt.Fprintf(out, "  %s╚%s╝%s\n", cyan, border, reset)

	for on := 1; on <= 5; on++ {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprintf(out, moveUp, 2)
		fmt.Fprintf(out, "%s  %s║%s%s%s %s║%s\n", clearLine, cyan, pad, lights(on, red), pad, cyan, reset)
		fmt.Fprintf(out, "%s  %s╚%s╝%s\n", clearLine, cyan, border, reset)
	}

	time.Sleep(500 * time.Millisecond)
	msg := "LIGHTS OUT AND AWAY WE GO"
	left := (width - len(msg)) / 2
	fmt.Fprintf(out, moveUp, 2)
	fmt.Fprintf(out, "%s  %s║%s%s%s%s%s%s║%s\n", clearLine, cyan, strings.Repeat(" ", left), bold+green, msg, reset, strings.Repeat(" ", width-left-len(msg)), cyan, reset)
	fmt.Fprintf(out, "%s  %s╚%s╝%s\n\n", clearLine, cyan, border, reset)
}

// consoleWriter turns bare newlines into CRLF so output stays aligned while
// the terminal is in raw mode
type consoleWriter struct {
	w io.Writer
}

func (c consoleWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\r\n", "\n")
	if _, err := io.WriteString(c.w, strings.ReplaceAll(s, "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func main() {
	cfg, err := config.Load(".env", os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "f1bet: %v\n", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("f1bet %s\n", version)
		os.Exit(0)
	}

	interactive := !cfg.NoKeyboard && term.IsTerminal(int(os.Stdin.Fd()))
	var out io.Writer = os.Stdout
	if interactive {
		out = consoleWriter{w: os.Stdout}
	}

	showStartupBanner(out, term.IsTerminal(int(os.Stdout.Fd())))

	appLog := logger.NewWithWriter(out, logger.ParseLevel(cfg.LogLevel))

	client := f1api.NewHTTPClient(cfg.APIURL, appLog)
	a, err := app.New(appLog, app.Options{
		DBPath:    cfg.DBPath,
		APIURL:    cfg.APIURL,
		WatchCron: cfg.WatchCron,
	}, client, web.GetTemplatesFS(), web.GetStaticFS())
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(cfg.Addr())
	}()

	// Wait a moment for server to start
	time.Sleep(100 * time.Millisecond)

	opener := browser.New(app.LocalURL(cfg.Addr()))
	if !cfg.NoBrowser {
		if err := opener.Open("/"); err != nil {
			appLog.Warn("Could not open browser", "error", err)
		}
	}

	quit := make(chan struct{})
	if interactive {
		printKeyboardHelp(out)
		kb := &keyboard{out: out, app: a, pages: opener, log: appLog}
		go kb.listen(int(os.Stdin.Fd()), quit)
	} else {
		fmt.Fprintf(out, "\n%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			a.Close()
			log.Fatal(err)
		}
	case <-quit:
	case <-signals:
		fmt.Fprintf(out, "%sShutting down...%s\n", yellow, reset)
	}
}
