package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"imgbatch/internal/collect"
	"imgbatch/internal/processor"
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

var (
	ErrBusy      = errors.New("a batch is already running")
	ErrNoSources = errors.New("no source images selected")
)

const updateBuffer = 64

type runFunc func(ctx context.Context, items []processor.SourceItem, cfg processor.ConversionConfig, updates chan<- processor.ProgressUpdate) (processor.BatchResult, error)

// Controller owns the source selection and runs at most one batch at a time.
// While Running, the selection cannot be changed and Start is rejected.
type Controller struct {
	mu      sync.Mutex
	state   State
	sources *collect.SourceList
	journal *Journal
	run     runFunc
}

func NewController() *Controller {
	return &Controller{
		sources: collect.NewSourceList(),
		journal: &Journal{},
		run:     processor.Run,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Journal() *Journal {
	return c.journal
}

func (c *Controller) Add(paths ...string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return 0, ErrBusy
	}

	added, err := c.sources.Add(paths...)
	c.journal.Append(fmt.Sprintf("Added %d files", added))
	return added, err
}

func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return ErrBusy
	}

	c.sources.Clear()
	c.journal.Append("Cleared file list")
	return nil
}

func (c *Controller) Sources() []processor.SourceItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sources.Items()
}

// Start validates cfg, creates the output directory, snapshots the current
// selection and runs it on a background goroutine. Configuration errors are
// returned synchronously and leave the controller Idle.
func (c *Controller) Start(ctx context.Context, cfg processor.ConversionConfig) (*Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return nil, ErrBusy
	}
	if c.sources.Len() == 0 {
		return nil, ErrNoSources
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := processor.PrepareOutput(cfg); err != nil {
		return nil, err
	}

	items := c.sources.Items()
	runCtx, cancel := context.WithCancel(ctx)
	batch := &Batch{
		updates: make(chan processor.ProgressUpdate, updateBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	c.state = Running
	slog.Debug("batch starting", "items", len(items))

	internal := make(chan processor.ProgressUpdate, updateBuffer)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for u := range internal {
			if u.Kind == processor.UpdateLog {
				c.journal.Append(u.Message)
			}
			batch.updates <- u
		}
	}()

	go func() {
		defer cancel()
		result, err := c.run(runCtx, items, cfg, internal)
		close(internal)
		<-forwarded
		if err != nil {
			c.journal.Append("Batch aborted: " + err.Error())
		}
		c.finish(batch, result, err)
	}()

	return batch, nil
}

func (c *Controller) finish(b *Batch, result processor.BatchResult, err error) {
	b.result = result
	b.err = err

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()

	close(b.updates)
	close(b.done)
}

// Batch is a handle on one running batch.
type Batch struct {
	updates  chan processor.ProgressUpdate
	consumed atomic.Bool
	done     chan struct{}
	cancel  context.CancelFunc
	result  processor.BatchResult
	err     error
}

// Updates delivers the batch's events in processing order. It is closed after
// the final event, once the controller is Idle again. A caller that takes the
// channel must drain it, or the batch blocks once the buffers fill.
func (b *Batch) Updates() <-chan processor.ProgressUpdate {
	b.consumed.Store(true)
	return b.updates
}

// Cancel asks the batch to stop before its next item.
func (b *Batch) Cancel() {
	b.cancel()
}

// Wait blocks until the batch has finished and returns its result. When
// Updates was never called, Wait discards the events itself.
func (b *Batch) Wait() (processor.BatchResult, error) {
	if !b.consumed.Load() {
		for range b.updates {
		}
	}
	<-b.done
	return b.result, b.err
}

// Done is closed when the batch has finished.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}
