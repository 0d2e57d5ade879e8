package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Display renders pipeline progress. On a TTY the running agent is shown
// with a spinner on stderr; otherwise plain lines are written to out.
type Display struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	out          io.Writer
	current      *StepInfo
	spinner      *spinner.Spinner
}

// NewDisplay creates a display writing to out, or stdout when out is nil.
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	if out == nil {
		out = os.Stdout
	}
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		out:          out,
	}
}

// StartPhase prints the phase header.
func (d *Display) StartPhase(phase string, agents int) {
	d.StopSpinner()
	header := fmt.Sprintf("Phase %s (%d %s)", phase, agents, plural(agents, "agent", "agents"))
	fmt.Fprintln(d.out, paint(phaseColor, header, d.capabilities.SupportsColor))
}

// StartStep begins displaying progress for an agent.
func (d *Display) StartStep(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}
	d.StopSpinner()
	d.current = &step

	msg := buildStepMessage(step, "Running")
	if d.capabilities.IsTTY {
		d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond)
		d.spinner.Writer = os.Stderr
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return nil
	}

	fmt.Fprintln(d.out, msg)
	return nil
}

// CompleteStep stops the spinner and prints the success line followed by
// any warnings.
func (d *Display) CompleteStep(step StepInfo, warnings []string) error {
	d.StopSpinner()

	mark := checkmark(d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s completed\n", mark, buildStepMessage(step, "Agent"))
	for _, w := range warnings {
		fmt.Fprintf(d.out, "  %s %s\n", warningMark(d.symbols, d.capabilities.SupportsColor), w)
	}

	d.current = nil
	return nil
}

// FailStep stops the spinner and prints the failure line followed by the
// violations that caused it.
func (d *Display) FailStep(step StepInfo, reason string, details []string) error {
	d.StopSpinner()

	mark := failureMark(d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s failed: %s\n", mark, buildStepMessage(step, "Agent"), reason)
	for _, detail := range details {
		fmt.Fprintf(d.out, "   - %s\n", detail)
	}

	d.current = nil
	return nil
}

// StopSpinner stops the spinner without printing a status line. Call it
// before prompting the user.
func (d *Display) StopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
