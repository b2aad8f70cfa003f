package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"imgbatch/internal/collect"
	"imgbatch/internal/processor"
	"imgbatch/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "List the images a convert run would pick up, without touching them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		paths, err := collectSources(cmd.Context(), args, "", out)
		if err != nil {
			return err
		}

		list := collect.NewSourceList()
		if _, err := list.Add(paths...); err != nil {
			return fmt.Errorf("reading sources: %w", err)
		}
		items := list.Items()
		if len(items) == 0 {
			return nil
		}

		if err := renderSourceTable(out, items); err != nil {
			return err
		}

		var total int64
		for _, item := range items {
			total += item.SizeBytes
		}
		fmt.Fprintln(out, scanTotalStyle.Render(fmt.Sprintf("%d files, %s KB", len(items), sizeKB(total))))
		return nil
	},
}

func renderSourceTable(w io.Writer, items []processor.SourceItem) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Path, sizeKB(item.SizeBytes)})
	}

	table.Header([]string{"Path", "Size (KB)"})
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	return table.Render()
}

// sizeKB rounds a byte count to whole kilobytes.
func sizeKB(n int64) string {
	return strconv.FormatInt(int64(math.Round(float64(n)/1024)), 10)
}

var scanTotalStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)

func init() {
	rootCmd.AddCommand(scanCmd)
}
