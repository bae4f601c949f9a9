package cmd

import (
	"context"
	"os"
	"runtime"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/dvx/pkg/viewport"
)

const (
	defaultFallbackTermWidth  = 120
	defaultFallbackTermHeight = 24
)

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
)

// detectTerminalSize returns the best-effort terminal width/height by probing
// stdout, stderr, and stdin, then falling back to $COLUMNS and $LINES.
func detectTerminalSize() (int, int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := termGetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	w, h := defaultFallbackTermWidth, 0
	if col := os.Getenv("COLUMNS"); col != "" {
		if n, err := strconv.Atoi(col); err == nil && n > 0 {
			w = n
		}
	}
	if lines := os.Getenv("LINES"); lines != "" {
		if n, err := strconv.Atoi(lines); err == nil && n > 0 {
			h = n
		}
	}
	return w, h
}

// getProgramOptions returns the Bubble Tea options for the current stdin.
// When stdin carries the data, the program reads keys from the terminal
// device instead and terminal resizes are polled.
func getProgramOptions(ctx context.Context) ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !stdinIsPiped() {
		return nil, cleanup
	}

	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// no terminal device (CI); keys will not reach the program
		return nil, cleanup
	}
	ctx, cancel := context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withResizeObserver(ctx, ttyOut))
	}
	return opts, func() {
		cancel()
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if out == "" || out == in {
		return input, input, nil
	}
	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}
	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

// withResizeObserver forwards size changes of out to the program. Resize
// signals are not delivered for a terminal opened this way on every
// platform, so the size is polled until ctx is cancelled.
func withResizeObserver(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if out == nil {
			return
		}
		obs := viewport.NewTerminalObserver(ctx,
			viewport.WithFD(int(out.Fd())),
			viewport.WithSizeFunc(termGetSize))
		obs.Subscribe(func(s viewport.Size) {
			sendWindowSize(p, tea.WindowSizeMsg{Width: s.Width, Height: s.Height})
		})
	}
}
