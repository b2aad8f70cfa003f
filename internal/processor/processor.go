package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Run converts items one at a time, in order, and reports through updates.
// Only an invalid cfg or an unusable output directory stops the batch; every
// per-item failure is counted and logged and the loop moves on. Cancelling
// ctx stops the run between items and still returns a consistent result.
func Run(ctx context.Context, items []SourceItem, cfg ConversionConfig, updates chan<- ProgressUpdate) (BatchResult, error) {
	result := BatchResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := slog.Default().With("run_id", result.RunID)

	emit := func(u ProgressUpdate) {
		if updates != nil {
			updates <- u
		}
	}

	if err := cfg.Validate(); err != nil {
		result.FinishedAt = time.Now()
		return result, err
	}

	if err := PrepareOutput(cfg); err != nil {
		result.FinishedAt = time.Now()
		return result, err
	}

	total := len(items)
	logger.Info("batch started", "items", total, "format", cfg.Format.String(), "quality", cfg.Quality, "overwrite", cfg.Overwrite)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}

		emit(ProgressUpdate{Kind: UpdateStatus, Message: "Processing: " + item.Path, Done: result.Attempted, Total: total, Failed: result.Failed})

		outcome := Process(item.Path, cfg)
		result.Attempted++
		result.Items = append(result.Items, outcome)

		var line string
		if outcome.OK() {
			result.Succeeded++
			line = "Processed: " + item.Path
			logger.Debug("item processed", "path", item.Path, "dest", outcome.Dest)
		} else {
			result.Failed++
			line = fmt.Sprintf("Failed: %s -> %s", item.Path, outcome.Err.Error())
			logger.Debug("item failed", "path", item.Path, "kind", outcome.Err.Kind.String(), "error", outcome.Err)
		}

		emit(ProgressUpdate{Kind: UpdateLog, Message: line})
		emit(ProgressUpdate{Kind: UpdateProgress, Done: result.Attempted, Total: total, Failed: result.Failed})
	}

	if result.Cancelled {
		emit(ProgressUpdate{Kind: UpdateLog, Message: fmt.Sprintf("Cancelled after %d/%d", result.Attempted, total)})
	}

	status := fmt.Sprintf("Done. Processed %d/%d (failed %d)", result.Succeeded, total, result.Failed)
	emit(ProgressUpdate{Kind: UpdateStatus, Message: status, Done: result.Attempted, Total: total, Failed: result.Failed})
	emit(ProgressUpdate{Kind: UpdateLog, Message: fmt.Sprintf("Finished - processed %d/%d, failed %d", result.Succeeded, total, result.Failed)})

	result.FinishedAt = time.Now()
	emit(ProgressUpdate{Kind: UpdateDone, Message: status, Done: result.Attempted, Total: total, Failed: result.Failed})

	logger.Info("batch finished",
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond),
	)

	return result, nil
}

// PrepareOutput creates the output directory unless cfg overwrites sources.
func PrepareOutput(cfg ConversionConfig) error {
	if cfg.Overwrite {
		return nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return &ConfigError{Field: "output", Message: "cannot create output directory " + cfg.OutputDir, Err: err}
	}
	return nil
}

// writeAtomic streams write's output into a temp file next to destPath and
// renames it into place, so a failed encode never leaves a partial file.
func writeAtomic(destPath string, mode fs.FileMode, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".imgbatch-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if mode != 0 {
		if err := tmpFile.Chmod(mode); err != nil {
			_ = tmpFile.Close()
			return err
		}
	}

	bw := bufio.NewWriter(tmpFile)
	if err := write(bw); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
