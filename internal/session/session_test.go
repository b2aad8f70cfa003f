package session

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbatch/internal/processor"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func drain(b *Batch) []processor.ProgressUpdate {
	var events []processor.ProgressUpdate
	for u := range b.Updates() {
		events = append(events, u)
	}
	return events
}

func testConfig(outDir string) processor.ConversionConfig {
	return processor.ConversionConfig{
		Format:    processor.FormatJPEG,
		Quality:   80,
		OutputDir: outDir,
		Size:      processor.SizeSpec{Scale: "50", KeepAspect: true},
	}
}

func TestControllerRunsBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a)
	writePNG(t, b)

	c := NewController()
	added, err := c.Add(a, b, a)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	batch, err := c.Start(context.Background(), testConfig(filepath.Join(dir, "out")))
	require.NoError(t, err)

	events := drain(batch)
	result, err := batch.Wait()
	require.NoError(t, err)

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	require.NotEmpty(t, events)
	assert.Equal(t, processor.UpdateDone, events[len(events)-1].Kind)
	assert.FileExists(t, filepath.Join(dir, "out", "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "out", "b.jpg"))

	assert.Equal(t, []string{
		"Added 2 files",
		"Processed: " + a,
		"Processed: " + b,
		"Finished - processed 2/2, failed 0",
	}, c.Journal().Tail(0))
}

func TestControllerRejectsWhileRunning(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)

	release := make(chan struct{})
	var seen []processor.SourceItem
	c := NewController()
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		seen = items
		<-release
		updates <- processor.ProgressUpdate{Kind: processor.UpdateLog, Message: "fake done"}
		return processor.BatchResult{Attempted: len(items), Succeeded: len(items)}, nil
	}

	_, err := c.Add(a)
	require.NoError(t, err)

	batch, err := c.Start(context.Background(), testConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, Running, c.State())

	_, err = c.Start(context.Background(), testConfig(dir))
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Add(filepath.Join(dir, "other.png"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.Clear(), ErrBusy)

	close(release)
	drain(batch)
	result, err := batch.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []processor.SourceItem{{Path: a, SizeBytes: seen[0].SizeBytes}}, seen)
	assert.Equal(t, Idle, c.State())
	assert.Contains(t, c.Journal().Tail(1), "fake done")

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Sources())
}

func TestControllerValidatesBeforeStarting(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)

	c := NewController()
	called := false
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		called = true
		return processor.BatchResult{}, nil
	}

	_, err := c.Start(context.Background(), testConfig(dir))
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = c.Add(a)
	require.NoError(t, err)

	cfg := testConfig(dir)
	cfg.Quality = 101
	_, err = c.Start(context.Background(), cfg)
	var cfgErr *processor.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, Idle, c.State())
	assert.False(t, called)
}

func TestControllerCancel(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)

	c := NewController()
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		<-ctx.Done()
		return processor.BatchResult{Cancelled: true}, nil
	}

	_, err := c.Add(a)
	require.NoError(t, err)
	batch, err := c.Start(context.Background(), testConfig(dir))
	require.NoError(t, err)

	batch.Cancel()
	drain(batch)
	result, err := batch.Wait()
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, result.Attempted, result.Succeeded+result.Failed)
	assert.Equal(t, Idle, c.State())
}

func TestControllerRejectsUnusableOutputDir(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	c := NewController()
	called := false
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		called = true
		return processor.BatchResult{}, nil
	}
	_, err := c.Add(a)
	require.NoError(t, err)

	batch, err := c.Start(context.Background(), testConfig(filepath.Join(blocker, "out")))
	var cfgErr *processor.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "output", cfgErr.Field)
	assert.Nil(t, batch)
	assert.Equal(t, Idle, c.State())
	assert.False(t, called)
}

func TestControllerJournalsAbortedBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)

	c := NewController()
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		return processor.BatchResult{}, &processor.ConfigError{Field: "output", Message: "gone"}
	}
	_, err := c.Add(a)
	require.NoError(t, err)

	batch, err := c.Start(context.Background(), testConfig(dir))
	require.NoError(t, err)
	drain(batch)

	result, err := batch.Wait()
	var cfgErr *processor.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 0, result.Attempted)
	assert.Contains(t, c.Journal().Tail(1)[0], "Batch aborted")
	assert.Equal(t, Idle, c.State())
}

func TestBatchWaitWithoutReadingUpdates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a)

	c := NewController()
	c.run = func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error) {
		for i := 0; i < 1000; i++ {
			updates <- processor.ProgressUpdate{Kind: processor.UpdateProgress, Done: i}
		}
		return processor.BatchResult{Attempted: 1, Succeeded: 1}, nil
	}
	_, err := c.Add(a)
	require.NoError(t, err)

	batch, err := c.Start(context.Background(), testConfig(dir))
	require.NoError(t, err)

	result, err := batch.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, Idle, c.State())
}

func TestJournalTail(t *testing.T) {
	j := &Journal{}
	assert.Empty(t, j.Tail(5))

	for i := 0; i < 10; i++ {
		j.Append("line " + strconv.Itoa(i))
	}

	assert.Equal(t, 10, j.Len())
	assert.Equal(t, []string{"line 7", "line 8", "line 9"}, j.Tail(3))
	assert.Len(t, j.Tail(0), 10)
	assert.Len(t, j.Tail(50), 10)

	tail := j.Tail(1)
	tail[0] = "changed"
	assert.Equal(t, "line 9", j.Tail(1)[0])
}

func TestJournalConcurrentAppend(t *testing.T) {
	j := &Journal{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				j.Append("x")
				_ = j.Tail(3)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, j.Len())
}
