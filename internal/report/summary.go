package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

// SummaryRow is one product family in the run summary.
type SummaryRow struct {
	Family string
	Stats  fuel.CleanStats
}

var summaryHeader = []string{"Família", "Arquivos", "Linhas", "Válidas", "Descartadas"}

// WriteSummary prints a pipe table of per-family cleaning stats, padded by display width.
func WriteSummary(w io.Writer, rows []SummaryRow) error {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, summaryHeader)
	for _, row := range rows {
		table = append(table, []string{
			row.Family,
			strconv.Itoa(row.Stats.Files),
			strconv.Itoa(row.Stats.Rows),
			strconv.Itoa(row.Stats.Kept),
			strconv.Itoa(row.Stats.DroppedTotal()),
		})
	}

	widths := make([]int, len(summaryHeader))
	for _, cells := range table {
		for i, cell := range cells {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	lines := make([]string, 0, len(table)+1)
	for i, cells := range table {
		lines = append(lines, formatRow(cells, widths))
		if i == 0 {
			dashes := make([]string, len(widths))
			for j, width := range widths {
				dashes[j] = strings.Repeat("-", width)
			}
			lines = append(lines, formatRow(dashes, widths))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(cell, widths[i]))
		sb.WriteString(" |")
	}
	return sb.String()
}
