package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableStyle picks rounded borders on a terminal and a plain ASCII style when
// output is piped, so scripts get grep-friendly text.
func tableStyle(out io.Writer) table.Style {
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return table.StyleRounded
		}
	}
	return table.StyleDefault
}

func renderTable(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(tableStyle(out))

	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// toRow pads or truncates cells to the table's column count.
func toRow(cells []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
