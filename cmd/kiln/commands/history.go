package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = cellStyle.Foreground(lipgloss.Color("#D93025"))
	okStyle     = cellStyle.Foreground(lipgloss.Color("#22A06B"))
)

const resultColumn = 4

func (c *CLI) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := c.app.History(cmd.Context(), configPath(cmd))
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			if len(records) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no builds recorded")
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), historyTable(records).Render())
			return err
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Show only the most recent builds")

	return cmd
}

func historyTable(records []domain.BuildRecord) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers("ID", "STARTED", "DURATION", "MODE", "RESULT", "STEPS", "BUILT", "UP-TO-DATE", "FAILED", "SKIPPED")

	for _, r := range records {
		t.Row(
			r.ID.String()[:8],
			r.Started.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond).String(),
			r.Mode.String(),
			r.Code.String(),
			strconv.Itoa(r.Steps),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.UpToDate),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Skipped),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == resultColumn && records[row].Code == domain.BuildSuccessful:
			return okStyle
		case col == resultColumn:
			return failedStyle
		default:
			return cellStyle
		}
	})

	return t
}
