package stages

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	promptRender bool
	promptTools  bool
	promptFormat string
)

var promptCmd = &cobra.Command{
	Use:   "prompt <agent-id>",
	Short: "Print the instructions built for an agent",
	Long: `Build and print the instructions an agent receives: its role, context,
preparation and execution steps, the constraint block and closing notes.

--render styles the markdown for the terminal. --tools lists the MCP
functions offered to the agent in its phase.`,
	Example: `  # Raw instructions
  agentpipe prompt 11-discuss

  # Styled for the terminal
  agentpipe prompt 11-discuss --render

  # Whole agent configuration as JSON
  agentpipe prompt 11-discuss --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.ValidateFormat(promptFormat); err != nil {
			return err
		}

		rt := shared.RuntimeFrom(cmd)
		cfg, err := rt.RequireConfig()
		if err != nil {
			return err
		}
		ws, err := shared.OpenWorkspace(cfg, rt.Logger)
		if err != nil {
			return err
		}

		agent, err := buildAgent(ws, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if promptFormat != shared.FormatTable {
			return shared.WriteStructured(out, promptFormat, agent)
		}

		text := agent.Instructions
		if promptRender {
			text, err = renderMarkdown(text, shared.GetTerminalWidth(), shared.IsTerminal(os.Stdout))
			if err != nil {
				return apperrors.Wrap(err, apperrors.Runtime)
			}
		}
		fmt.Fprint(out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
		if promptTools {
			writeTools(out, agent)
		}
		return nil
	},
}

func init() {
	promptCmd.GroupID = shared.GroupPipeline
	promptCmd.Flags().BoolVar(&promptRender, "render", false, "Render markdown for the terminal")
	promptCmd.Flags().BoolVarP(&promptTools, "tools", "t", false, "List the tools offered to the agent")
	promptCmd.Flags().StringVarP(&promptFormat, "format", "f", shared.FormatTable, "Output format: table (instructions text), json, yaml")
}

// buildAgent creates the agent for id or returns an AgentNotFound error.
func buildAgent(ws *shared.Workspace, id string) (prompt.Agent, error) {
	spec, ok := ws.Catalog.Get(id)
	if !ok {
		return prompt.Agent{}, apperrors.AgentNotFound(id, ws.Catalog.Order())
	}
	return ws.Factory().Create(spec), nil
}

// renderMarkdown styles text with glamour. Without a terminal the notty
// style is used so no escape codes are emitted.
func renderMarkdown(text string, width int, tty bool) (string, error) {
	style := glamour.WithAutoStyle()
	if !tty {
		style = glamour.WithStylePath("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := renderer.Render(text)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func writeTools(w io.Writer, agent prompt.Agent) {
	fmt.Fprintf(w, "\nTools (%d):\n", len(agent.Tools))
	for _, tool := range agent.Tools {
		fmt.Fprintf(w, "  - %s [%s]: %s\n", tool.Function.Name, tool.Function.Server, tool.Function.Description)
	}
}
