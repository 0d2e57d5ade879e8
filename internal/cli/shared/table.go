package shared

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// cellStyle separates columns by two spaces.
var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// WriteTable renders rows under headers as a borderless, left-aligned table.
func WriteTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
