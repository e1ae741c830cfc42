//go:build linux || darwin

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTerminal checks if the file descriptor is a terminal.
func isTerminal(fd uintptr) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	_, err := unix.IoctlGetTermios(int(fd), ioctlReadTermios)
	return err == nil
}
