package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/build"
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for agentpipe",
	Example: `  # Show version info
  agentpipe version

  # Plain output (for scripts)
  agentpipe version --plain`,
	Run: func(cmd *cobra.Command, args []string) {
		info := build.Current()
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout(), info)
		} else {
			printPrettyVersion(cmd.OutOrStdout(), info, shared.GetTerminalWidth())
		}
	},
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer, info build.Info) {
	fmt.Fprintf(w, "agentpipe %s\n", info.Version)
	fmt.Fprintf(w, "commit: %s\n", info.Commit)
	fmt.Fprintf(w, "built: %s\n", info.BuildDate)
	fmt.Fprintf(w, "go: %s\n", info.GoVersion)
	fmt.Fprintf(w, "platform: %s\n", info.Platform)
}

// printPrettyVersion prints a styled version box centered in termWidth
func printPrettyVersion(w io.Writer, info build.Info, termWidth int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(w)
	fmt.Fprintln(w, cyan(shared.CenterText("agentpipe", termWidth)))
	fmt.Fprintln(w, dim(shared.CenterText(shared.Tagline, termWidth)))
	fmt.Fprintln(w)

	rows := []struct {
		label string
		value string
	}{
		{"Version", info.Version},
		{"Commit", truncateCommit(info.Commit)},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	}

	boxWidth := 44
	if termWidth < 50 {
		boxWidth = max(termWidth-6, 24)
	}
	contentWidth := boxWidth - 4

	boxPadding := (termWidth - boxWidth) / 2
	if boxPadding < 0 {
		boxPadding = 0
	}
	pad := strings.Repeat(" ", boxPadding)
	blank := pad + shared.BoxVertical + strings.Repeat(" ", boxWidth-2) + shared.BoxVertical

	fmt.Fprintln(w, pad+shared.BoxTopLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxTopRight)
	fmt.Fprintln(w, blank)
	for _, row := range rows {
		line := fmt.Sprintf("  %s    %s", yellow(fmt.Sprintf("%10s", row.label)), white(row.value))
		// Pad on visible width; color codes do not count.
		lineLen := 2 + 10 + 4 + len(row.value)
		if lineLen < contentWidth {
			line += strings.Repeat(" ", contentWidth-lineLen)
		}
		fmt.Fprintln(w, pad+shared.BoxVertical+" "+line+" "+shared.BoxVertical)
	}
	fmt.Fprintln(w, blank)
	fmt.Fprintln(w, pad+shared.BoxBottomLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxBottomRight)
	fmt.Fprintln(w)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
