package tui

import (
	"fmt"
	"io"

	"imgbatch/internal/processor"
)

// PrintUpdates writes status and log events as plain lines until updates is
// closed. It is the foreground surface when stdout is not a terminal.
func PrintUpdates(w io.Writer, updates <-chan processor.ProgressUpdate) {
	for u := range updates {
		switch u.Kind {
		case processor.UpdateStatus:
			fmt.Fprintf(w, "[%d/%d] %s\n", u.Done, u.Total, u.Message)
		case processor.UpdateLog:
			fmt.Fprintf(w, "  %s\n", u.Message)
		}
	}
}
