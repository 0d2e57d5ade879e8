package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgRed, color.Bold)
	labelColor  = color.New(color.FgYellow, color.Bold)
	usageColor  = color.New(color.FgCyan)
)

// FormatError renders err with colors for terminal output.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return format(err, true)
}

// FormatErrorPlain renders err without color codes.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return format(err, false)
}

func format(err *CLIError, colored bool) string {
	paint := func(c *color.Color, s string) string {
		if !colored {
			return s
		}
		return c.Sprint(s)
	}

	var sb strings.Builder
	sb.WriteString(paint(headerColor, err.Category.String()+":"))
	sb.WriteString(" ")
	sb.WriteString(err.Message)
	sb.WriteString("\n")

	if err.Usage != "" {
		sb.WriteString("\n")
		sb.WriteString(paint(labelColor, "Usage:"))
		sb.WriteString(" ")
		sb.WriteString(paint(usageColor, err.Usage))
		sb.WriteString("\n")
	}

	if len(err.Remediation) > 0 {
		sb.WriteString("\n")
		sb.WriteString(paint(labelColor, "To fix this:"))
		sb.WriteString("\n")
		for i, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
		}
	}

	return sb.String()
}

// FprintError writes err to w, colored only when color output is enabled.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	if color.NoColor {
		fmt.Fprint(w, FormatErrorPlain(err))
		return
	}
	fmt.Fprint(w, FormatError(err))
}
