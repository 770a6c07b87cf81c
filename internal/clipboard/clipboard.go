package clipboard

import (
	stderrors "errors"
	"fmt"
	"runtime"

	sysclip "github.com/atotto/clipboard"

	"github.com/dpshade/pocket-fill/internal/errors"
)

// ClipboardError represents an error when no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a new ClipboardError with helpful installation instructions
func NewClipboardError() *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		msg = "no clipboard utility found. " + GetInstallInstructions()
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}

	return &ClipboardError{
		OS:      runtime.GOOS,
		Message: msg,
	}
}

// writeAll is swapped out in tests.
var writeAll = sysclip.WriteAll

// Copy copies text to the system clipboard
func Copy(text string) error {
	if err := writeAll(text); err != nil {
		if !IsClipboardAvailable() {
			return NewClipboardError()
		}
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

// CopyWithFallback attempts to copy to clipboard and returns a message.
// Failures come back as ErrCodeClipboardUnavailable app errors so callers
// can show them as warnings and still print the text.
func CopyWithFallback(text string) (string, error) {
	err := Copy(text)
	if err == nil {
		return "Copied to clipboard!", nil
	}

	var clipErr *ClipboardError
	if stderrors.As(err, &clipErr) {
		return "", errors.Wrap(err, errors.ErrCodeClipboardUnavailable, "Clipboard unavailable").
			WithDetails(clipErr.Message).
			WithContext("os", clipErr.OS)
	}
	return "", errors.Wrap(err, errors.ErrCodeClipboardUnavailable, "Failed to copy to clipboard")
}

// IsClipboardAvailable checks if clipboard functionality is available
func IsClipboardAvailable() bool {
	return !sysclip.Unsupported
}

// GetInstallInstructions returns installation instructions for clipboard utilities
func GetInstallInstructions() string {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "Install a clipboard utility:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		return "pbcopy should be available by default on macOS"
	case "windows":
		return "The Windows clipboard API should be available by default"
	default:
		return fmt.Sprintf("Clipboard not supported on %s", runtime.GOOS)
	}
}
