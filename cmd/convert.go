package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"imgbatch/internal/processor"
	"imgbatch/internal/session"
	"imgbatch/internal/tui"
)

var convertOpts struct {
	format     string
	quality    int
	width      string
	height     string
	scale      string
	keepAspect bool
	overwrite  bool
	outputDir  string
	autoOrient bool
	plain      bool
	report     string
	logTail    int
}

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <path>...",
	Short: "Convert and optionally resize images to one target format",
	Long: "Convert every selected image (files, or folders scanned recursively) to the target format.\n" +
		"Results go to --output unless --overwrite is given, in which case each source is replaced.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := conversionFromFlags(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		exclude := ""
		if !conv.Overwrite {
			exclude = conv.OutputDir
		}
		paths, err := collectSources(cmd.Context(), args, exclude, out)
		if err != nil {
			return err
		}

		controller := session.NewController()
		if _, err := controller.Add(paths...); err != nil {
			return fmt.Errorf("adding sources: %w", err)
		}

		batch, err := controller.Start(cmd.Context(), conv)
		if errors.Is(err, session.ErrNoSources) {
			return errors.New("no images selected: pass image files or a folder that contains some")
		}
		if err != nil {
			return err
		}

		total := len(controller.Sources())
		if !convertOpts.plain && isTerminal(out) {
			if err := runProgram(batch, total); err != nil {
				slog.Warn("progress display failed", "error", err)
			}
		} else {
			tui.PrintUpdates(out, batch.Updates())
		}

		result, err := batch.Wait()
		if err != nil {
			return fmt.Errorf("batch aborted: %w", err)
		}

		printResult(out, result, conv)

		if convertOpts.report != "" {
			if err := writeReport(convertOpts.report, newRunReport(result, conv)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Report written to: %s\n", convertOpts.report)
		}

		if convertOpts.logTail > 0 {
			fmt.Fprintln(out)
			for _, line := range controller.Journal().Tail(convertOpts.logTail) {
				fmt.Fprintln(out, line)
			}
		}

		return nil
	},
}

// conversionFromFlags merges explicitly set flags over the loaded config.
func conversionFromFlags(cmd *cobra.Command) (processor.ConversionConfig, error) {
	overwrite := pick(cmd, "overwrite", convertOpts.overwrite, cfg.Convert.Overwrite)
	if overwrite && cmd.Flags().Changed("output") {
		return processor.ConversionConfig{}, fmt.Errorf("--overwrite cannot be used with --output (overwrite may come from config)")
	}

	formatName := pick(cmd, "format", convertOpts.format, cfg.Convert.Format)
	format, err := processor.ParseFormat(formatName)
	if err != nil {
		return processor.ConversionConfig{}, err
	}

	return processor.ConversionConfig{
		Format:  format,
		Quality: pick(cmd, "quality", convertOpts.quality, cfg.Convert.Quality),
		Size: processor.SizeSpec{
			Scale:      convertOpts.scale,
			Width:      convertOpts.width,
			Height:     convertOpts.height,
			KeepAspect: pick(cmd, "keep-aspect", convertOpts.keepAspect, cfg.Convert.KeepAspect),
		},
		Overwrite:  overwrite,
		OutputDir:  pick(cmd, "output", convertOpts.outputDir, cfg.Convert.OutputDir),
		AutoOrient: pick(cmd, "auto-orient", convertOpts.autoOrient, cfg.Convert.AutoOrient),
	}, nil
}

func pick[T any](cmd *cobra.Command, name string, flagValue, configValue T) T {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configValue
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runProgram shows the progress UI until the batch's update stream closes.
// Log output below warn is held back while the UI owns the terminal.
func runProgram(batch *session.Batch, total int) error {
	if !verbose {
		prev := logLevel.Level()
		if prev < slog.LevelWarn {
			logLevel.Set(slog.LevelWarn)
			defer logLevel.Set(prev)
		}
	}

	program := tea.NewProgram(tui.NewModel(batch.Updates(), total, batch.Cancel))
	_, err := program.Run()

	// the program may quit early on error or interrupt
	for range batch.Updates() {
	}
	return err
}

func printResult(out io.Writer, result processor.BatchResult, conv processor.ConversionConfig) {
	rows := []tui.SummaryRow{
		{Label: "Run", Value: result.RunID},
		{Label: "Files selected", Value: strconv.Itoa(result.Attempted)},
		{Label: "Converted", Value: strconv.Itoa(result.Succeeded)},
		{Label: "Failed", Value: strconv.Itoa(result.Failed), Warn: result.Failed > 0},
		{Label: "Target format", Value: conv.Format.String()},
	}
	if result.Cancelled {
		rows = append(rows, tui.SummaryRow{Label: "Cancelled", Value: "yes", Warn: true})
	}
	fmt.Fprintln(out, tui.RenderSummary(rows))

	for _, item := range result.Items {
		if !item.OK() {
			fmt.Fprintf(out, "  %s: %s\n", item.Path, item.Err.Error())
		}
	}

	if conv.Overwrite {
		fmt.Fprintln(out, "Originals replaced in place.")
		return
	}
	outPath := conv.OutputDir
	if abs, err := filepath.Abs(outPath); err == nil {
		outPath = abs
	}
	fmt.Fprintf(out, "Converted files written to: %s\n", outPath)
}

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertOpts.format, "format", "f", "jpeg", "target format: jpeg, png, webp, bmp or tiff")
	f.IntVarP(&convertOpts.quality, "quality", "q", 85, "encoder quality, 1-100 (JPEG and WEBP)")
	f.StringVar(&convertOpts.width, "width", "", "target width in pixels")
	f.StringVar(&convertOpts.height, "height", "", "target height in pixels")
	f.StringVar(&convertOpts.scale, "scale", "", "resize by percentage; takes precedence over --width/--height")
	f.BoolVar(&convertOpts.keepAspect, "keep-aspect", true, "fit inside --width/--height instead of stretching")
	f.BoolVar(&convertOpts.overwrite, "overwrite", false, "replace each source instead of writing to --output")
	f.StringVarP(&convertOpts.outputDir, "output", "o", "output_images", "destination folder for converted files")
	f.BoolVar(&convertOpts.autoOrient, "auto-orient", false, "apply the EXIF orientation before resizing")
	f.BoolVar(&convertOpts.plain, "plain", false, "print progress lines instead of the interactive display")
	f.StringVar(&convertOpts.report, "report", "", "write a YAML report of the run to this file")
	f.IntVar(&convertOpts.logTail, "log-tail", 0, "print the last N log lines after the run")

	rootCmd.AddCommand(convertCmd)
}
