// Package errors routes user-facing messages to the CLI or the TUI status
// line.
package errors

// ErrorHandler is the interface for error handling.
// Different implementations can handle errors differently based on context.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// ColorOutput prints coloured console messages.
type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// CLIHandler prints messages to the console through a ColorOutput. The
// koyr subcommands report their outcomes through it.
type CLIHandler struct {
	colors ColorOutput
}

func NewCLIHandler(colors ColorOutput) *CLIHandler {
	return &CLIHandler{colors: colors}
}

func (h *CLIHandler) Error(msg string) {
	h.colors.Error(msg)
}

func (h *CLIHandler) Warning(msg string) {
	h.colors.Warning(msg)
}

func (h *CLIHandler) Info(msg string) {
	h.colors.Info(msg)
}

func (h *CLIHandler) Success(msg string) {
	h.colors.Success(msg)
}

// Report sends err to h as an error prefixed with what failed. A nil err is
// reported as a success message when success is non-empty.
func Report(h ErrorHandler, what string, err error, success string) {
	if err != nil {
		h.Error(what + ": " + err.Error())
		return
	}
	if success != "" {
		h.Success(success)
	}
}
