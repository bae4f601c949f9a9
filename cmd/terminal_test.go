package cmd

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalDeviceNames(t *testing.T) {
	in, out := terminalDeviceNames("windows")
	assert.Equal(t, "CONIN$", in)
	assert.Equal(t, "CONOUT$", out)

	in, out = terminalDeviceNames("linux")
	assert.Equal(t, "/dev/tty", in)
	assert.Equal(t, "/dev/tty", out)
}

func TestGetProgramOptions_PipedUsesTTYAndCleansUp(t *testing.T) {
	origIsPiped, origOpenTTY := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() {
		stdinIsPiped = origIsPiped
		openTerminalIOFn = origOpenTTY
	})
	stdinIsPiped = func() bool { return true }

	inFile, err := os.CreateTemp(t.TempDir(), "tty-in-*")
	require.NoError(t, err)
	outFile, err := os.CreateTemp(t.TempDir(), "tty-out-*")
	require.NoError(t, err)
	openTerminalIOFn = func() (*os.File, *os.File, error) { return inFile, outFile, nil }

	opts, cleanup := getProgramOptions(context.Background())
	require.NotNil(t, cleanup)
	assert.Len(t, opts, 3)

	// both handles are closed; a second close fails
	cleanup()
	assert.Error(t, inFile.Close())
	assert.Error(t, outFile.Close())
}

func TestGetProgramOptions_NotPipedUsesDefaults(t *testing.T) {
	origIsPiped, origOpenTTY := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() {
		stdinIsPiped = origIsPiped
		openTerminalIOFn = origOpenTTY
	})
	stdinIsPiped = func() bool { return false }
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("should not be called")
	}

	opts, cleanup := getProgramOptions(context.Background())
	assert.Nil(t, opts)
	assert.NotPanics(t, cleanup)
}

func TestGetProgramOptions_NoTerminalDevice(t *testing.T) {
	origIsPiped, origOpenTTY := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() {
		stdinIsPiped = origIsPiped
		openTerminalIOFn = origOpenTTY
	})
	stdinIsPiped = func() bool { return true }
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("no tty")
	}

	opts, cleanup := getProgramOptions(context.Background())
	assert.Nil(t, opts)
	assert.NotPanics(t, cleanup)
}

func TestDetectTerminalSizeFallsBackToEnv(t *testing.T) {
	orig := termGetSize
	t.Cleanup(func() { termGetSize = orig })
	termGetSize = func(int) (int, int, error) { return 0, 0, errors.New("not a terminal") }

	t.Setenv("COLUMNS", "97")
	t.Setenv("LINES", "31")
	w, h := detectTerminalSize()
	assert.Equal(t, 97, w)
	assert.Equal(t, 31, h)

	t.Setenv("COLUMNS", "")
	t.Setenv("LINES", "junk")
	w, h = detectTerminalSize()
	assert.Equal(t, defaultFallbackTermWidth, w)
	assert.Zero(t, h)
}
