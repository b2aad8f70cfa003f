package cmd

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"imgbatch/internal/collect"
)

const scanWorkers = 4

// collectSources expands each argument (file or folder) into supported image
// paths, keeping argument order. Folders that yield nothing are reported to out.
func collectSources(ctx context.Context, args []string, exclude string, out io.Writer) ([]string, error) {
	results := make([][]string, len(args))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanWorkers)
	for i, arg := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths, err := collect.Scan(arg, exclude)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", arg, err)
			}
			results[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for i, arg := range args {
		if len(results[i]) == 0 {
			fmt.Fprintf(out, "No supported images found in %s\n", arg)
			continue
		}
		all = append(all, results[i]...)
	}
	return all, nil
}
