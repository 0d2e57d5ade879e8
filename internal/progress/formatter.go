package progress

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	successColor = []color.Attribute{color.FgGreen}
	failureColor = []color.Attribute{color.FgRed}
	warningColor = []color.Attribute{color.FgYellow}
	phaseColor   = []color.Attribute{color.FgCyan, color.Bold}
)

// formatStepCounter returns the [N/Total] step counter string
func formatStepCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

// buildStepMessage constructs the line shown while an agent runs
func buildStepMessage(step StepInfo, action string) string {
	msg := fmt.Sprintf("%s %s %s", formatStepCounter(step.Number, step.Total), action, step.AgentID)
	if step.Name != "" && step.Name != step.AgentID {
		msg += fmt.Sprintf(" (%s)", step.Name)
	}
	return msg
}

// paint colors s when enabled, independent of color.NoColor, since
// capabilities are detected by the caller.
func paint(attrs []color.Attribute, s string, enabled bool) string {
	if !enabled {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// checkmark returns the success symbol, green when color is supported
func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(successColor, symbols.Checkmark, supportsColor)
}

// failureMark returns the failure symbol, red when color is supported
func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(failureColor, symbols.Failure, supportsColor)
}

// warningMark returns the warning symbol, yellow when color is supported
func warningMark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(warningColor, symbols.Warning, supportsColor)
}
