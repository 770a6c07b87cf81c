package clipboard

import (
	stderrors "errors"
	"runtime"
	"strings"
	"testing"

	"github.com/dpshade/pocket-fill/internal/errors"
)

func stubWriter(t *testing.T, fn func(string) error) {
	t.Helper()
	orig := writeAll
	writeAll = fn
	t.Cleanup(func() { writeAll = orig })
}

func TestClipboardError(t *testing.T) {
	err := NewClipboardError()

	if err.OS != runtime.GOOS {
		t.Errorf("Expected OS to be %s, got %s", runtime.GOOS, err.OS)
	}

	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}

	var clipErr *ClipboardError
	if !stderrors.As(err, &clipErr) {
		t.Error("Should be able to unwrap as ClipboardError")
	}
}

func TestGetInstallInstructions(t *testing.T) {
	instructions := GetInstallInstructions()

	if instructions == "" {
		t.Error("Install instructions should not be empty")
	}

	switch runtime.GOOS {
	case "linux":
		if !strings.Contains(instructions, "xclip") {
			t.Error("Linux instructions should mention xclip")
		}
	case "darwin":
		if !strings.Contains(instructions, "pbcopy") {
			t.Error("macOS instructions should mention pbcopy")
		}
	}
}

func TestCopyWithFallback(t *testing.T) {
	var got string
	stubWriter(t, func(s string) error {
		got = s
		return nil
	})

	statusMsg, err := CopyWithFallback("filled prompt")
	if err != nil {
		t.Fatalf("CopyWithFallback() error = %v", err)
	}
	if statusMsg != "Copied to clipboard!" {
		t.Errorf("Expected 'Copied to clipboard!', got '%s'", statusMsg)
	}
	if got != "filled prompt" {
		t.Errorf("clipboard received %q", got)
	}
}

func TestCopyWithFallbackFailure(t *testing.T) {
	stubWriter(t, func(string) error { return stderrors.New("exit status 1") })

	statusMsg, err := CopyWithFallback("text")
	if err == nil {
		t.Fatal("expected an error")
	}
	if statusMsg != "" {
		t.Errorf("status message should be empty on failure, got %q", statusMsg)
	}
	if !errors.HasCode(err, errors.ErrCodeClipboardUnavailable) {
		t.Errorf("expected clipboard code, got %v", err)
	}
}
