//go:build windows

package logger

// Color detection is skipped on Windows; plain text output is always
// safe there.
func isTerminal(fd uintptr) bool {
	return false
}
