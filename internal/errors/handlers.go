package errors

import (
	"fmt"

	"github.com/dpshade/pocket-fill/internal/logging"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
	log     *logging.Logger
}

// NewCLIErrorHandler creates a new CLI error handler. A nil logger discards
// log output.
func NewCLIErrorHandler(log *logging.Logger, verbose bool) *CLIErrorHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &CLIErrorHandler{Verbose: verbose, log: log}
}

// HandleError logs err and returns a copy formatted for terminal display.
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)
	logAppError(h.log, appErr)

	msg := h.FormatError(appErr)
	if h.Verbose && appErr.Cause != nil {
		msg = fmt.Sprintf("%s\n   caused by: %v", msg, appErr.Cause)
	}
	return fmt.Errorf("%s", msg)
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if appErr.Details != "" {
		message = fmt.Sprintf("%s: %s", message, appErr.Details)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", message)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", message)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", message)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", message)
	default:
		return fmt.Sprintf("❌ %s", message)
	}
}

// TUIErrorHandler handles errors for TUI interface
type TUIErrorHandler struct {
	ShowDetails bool
	log         *logging.Logger
}

// NewTUIErrorHandler creates a new TUI error handler
func NewTUIErrorHandler(log *logging.Logger, showDetails bool) *TUIErrorHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &TUIErrorHandler{ShowDetails: showDetails, log: log}
}

// HandleError logs the error; the TUI owns the terminal so nothing is printed.
func (h *TUIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)
	logAppError(h.log, appErr)
	return appErr
}

// FormatError formats an error for the status line
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s (%s)", message, appErr.Details)
	}
	return message
}

// GetErrorStyle returns the icon and foreground colour for err's severity.
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	appErr := GetAppError(err)

	switch appErr.Severity {
	case SeverityCritical:
		return "🔥", "#ff0000"
	case SeverityError:
		return "❌", "#ff6b6b"
	case SeverityWarning:
		return "⚠️", "#feca57"
	case SeverityInfo:
		return "ℹ️", "#48cae4"
	default:
		return "❌", "#ff6b6b"
	}
}

func logAppError(log *logging.Logger, appErr *AppError) {
	kv := []any{
		"code", appErr.Code,
		"category", appErr.Category,
		"severity", appErr.Severity,
	}
	if appErr.Details != "" {
		kv = append(kv, "details", appErr.Details)
	}
	if appErr.Cause != nil {
		kv = append(kv, "cause", appErr.Cause.Error())
	}
	for k, v := range appErr.Context {
		kv = append(kv, k, v)
	}

	switch appErr.Severity {
	case SeverityInfo:
		log.Info(appErr.Message, kv...)
	case SeverityWarning:
		log.Warn(appErr.Message, kv...)
	default:
		log.Error(appErr.Message, kv...)
	}
}
