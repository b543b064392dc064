package app

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/browser"
)

func init() {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openCommand picks the desktop opener for path.
func openCommand(path string) *exec.Cmd {
	switch {
	case fileExists("/usr/bin/xdg-open"): // Linux
		return exec.Command("xdg-open", path)
	case fileExists("/usr/bin/open"): // macOS
		return exec.Command("open", path)
	default: // Windows or fallback
		return exec.Command("cmd", "/c", "start", "", path)
	}
}

// openExternally hands path to the desktop's default application, falling
// back to the platform opener when the browser helper fails.
func openExternally(path string) error {
	if err := browser.OpenFile(path); err == nil {
		return nil
	}
	cmd := openCommand(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}
