package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"roster/pkg/catalog"
	"roster/pkg/diff"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// diagnose logs what the catalog looks like at startup. The repeated
// entry check flags data-entry artifacts instead of hiding them.
func diagnose(w io.Writer, cat *catalog.Catalog) {
	records := cat.Records()
	log.Info("Character string representation", "character", records[0].String())
	if len(records) > 1 {
		log.Info("Contents of index 0 and 1 the same?", "same", records[0].Equal(records[1]))
	}

	for _, d := range cat.Duplicates() {
		log.Warn("duplicate catalog entry overwritten",
			"name", d.Name, "index", d.Index, "identical", d.Identical)
		if !d.Identical {
			diff.Characters(d.Overwritten, d.Kept).Print(w)
		}
	}

	fmt.Fprintln(w, catalogTable(cat))
}

func catalogTable(cat *catalog.Catalog) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("NAME", "IMAGE", "SKILL", "LUCK", "STAMINA").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, ch := range cat.Characters() {
		t.Row(ch.Name, ch.ImagePath, strconv.Itoa(ch.Skill), strconv.Itoa(ch.Luck), strconv.Itoa(ch.Stamina))
	}
	return t.Render()
}
