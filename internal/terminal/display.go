package terminal

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Hushmonday/Echo-hackathon/internal/utils"
)

// Display prints alerts and AI results, and hands URLs to the desktop opener.
type Display struct {
	mutex sync.Mutex
	out   io.Writer

	// openCommand builds the opener invocation, swapped out in tests.
	openCommand func(url string) *exec.Cmd
}

func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:         out,
		openCommand: desktopOpenCommand,
	}
}

func (d *Display) Alert(message string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	fmt.Fprintf(d.out, "\n*** %s\n\n", message)
}

func (d *Display) ShowResult(text string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	fmt.Fprintf(d.out, "---- AI result ----\n%s\n-------------------\n", strings.TrimRight(text, "\n"))
}

func (d *Display) Printf(format string, args ...any) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	fmt.Fprintf(d.out, format, args...)
}

// OpenURL falls back to printing the URL when there is no opener.
func (d *Display) OpenURL(url string) error {
	cmd := d.openCommand(url)
	if cmd == nil {
		d.Printf("Open %s\n", url)
		return nil
	}
	if err := cmd.Start(); err != nil {
		log.Debug().Err(err).Str("opener", cmd.Path).Msg("cannot launch opener")
		d.Printf("Open %s\n", url)
		return nil
	}
	d.Printf("Opened %s\n", url)
	go func() { utils.Dbg(cmd.Wait()) }()
	return nil
}

func desktopOpenCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url)
	default:
		return nil
	}
}
