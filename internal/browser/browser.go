// Package browser opens pages of the local web client in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Commander starts external commands
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander executes actual commands
type RealCommander struct{}

// Start starts the command without waiting for it
func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Opener opens client pages relative to a base URL
type Opener struct {
	base string
	cmd  Commander
	goos string
}

// New creates an opener for the client listening at base
func New(base string) *Opener {
	return NewWithCommander(base, RealCommander{}, runtime.GOOS)
}

// NewWithCommander creates an opener with an explicit commander and OS
func NewWithCommander(base string, cmd Commander, goos string) *Opener {
	return &Opener{base: strings.TrimSuffix(base, "/"), cmd: cmd, goos: goos}
}

// URL returns the absolute address of a client page
func (o *Opener) URL(path string) string {
	if path == "" || path == "/" {
		return o.base + "/"
	}
	return o.base + "/" + strings.TrimPrefix(path, "/")
}

// Open launches the browser on path, e.g. "/races"
func (o *Opener) Open(path string) error {
	target := o.URL(path)
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open non-http url %q", target)
	}

	name, args, err := command(o.goos, target)
	if err != nil {
		return err
	}
	return o.cmd.Start(name, args...)
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
