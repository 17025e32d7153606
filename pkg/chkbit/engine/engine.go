package engine

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chkbit-go/chkbit/pkg/chkbit/event"
	"github.com/chkbit-go/chkbit/pkg/chkbit/ignore"
	"github.com/chkbit-go/chkbit/pkg/chkbit/index"
	"github.com/chkbit-go/chkbit/pkg/logging"
)

// resultChannelCapacity bounds the result channel so that a slow sink
// applies some backpressure to workers rather than letting memory grow
// unbounded. Unlike the input queue (see unboundedQueue), workers are
// never themselves responsible for draining this channel, so a fixed
// bound here can't deadlock the pool.
const resultChannelCapacity = 1024

// Engine coordinates a WorkerPool over one or more root directory trees.
// Config is immutable for the lifetime of a run; the job queue and result
// channel are the only mutable shared state, per spec.md section 5.
type Engine struct {
	config Config
	logger *logging.Logger
}

// New constructs an Engine with the given configuration.
func New(config Config, logger *logging.Logger) *Engine {
	return &Engine{config: config, logger: logger}
}

// Run seeds the input queue with roots and processes the resulting
// directory forest using Config.NumWorkers workers, returning a channel of
// events that closes once the queue has drained and every worker is idle
// (or ctx is cancelled and all in-flight work has wound down).
func (e *Engine) Run(ctx context.Context, roots []string) <-chan event.Event {
	numWorkers := e.config.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	queue := newUnboundedQueue()
	results := make(chan event.Event, resultChannelCapacity)

	var inflight sync.WaitGroup
	for _, root := range roots {
		inflight.Add(1)
		queue.in <- InputItem{Path: root, Parent: ignore.Root()}
	}

	// Closing queue.in once every enqueued item (roots and all their
	// descendants) has finished processing is what gives us "queue empty
	// AND no worker mid-task" — a condition a plain channel close alone
	// cannot express, since workers are also the producers of new jobs.
	go func() {
		inflight.Wait()
		close(queue.in)
	}()

	var workers sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		workers.Add(1)
		go func(id int) {
			defer workers.Done()
			w := &worker{
				id:       id,
				config:   e.config,
				jobs:     queue.out,
				enqueue:  queue.in,
				results:  results,
				inflight: &inflight,
				logger:   e.logger.Sublogger("worker").Sublogger(strconv.Itoa(id)),
				ctx:      ctx,
			}
			w.run()
		}(i)
	}

	go func() {
		workers.Wait()
		close(results)
	}()

	return results
}

// worker is one goroutine of the pool. It has no exported surface; all
// coordination happens through the channels and wait group it's
// constructed with.
type worker struct {
	id       int
	config   Config
	jobs     <-chan InputItem
	enqueue  chan<- InputItem
	results  chan event.Event
	inflight *sync.WaitGroup
	logger   *logging.Logger
	ctx      context.Context
}

func (w *worker) emit(e event.Event) {
	w.results <- e
}

func (w *worker) run() {
	for item := range w.jobs {
		if w.ctx.Err() != nil {
			// Cooperative cancellation: discard remaining queued
			// directories without processing them, per spec.md section 5.
			w.inflight.Done()
			continue
		}
		w.process(item)
		w.inflight.Done()
	}
}

func (w *worker) process(item InputItem) {
	w.logger.Debugf("processing %s", item.Path)

	defer func() {
		if r := recover(); r != nil {
			w.emit(event.InternalException(item.Path, recoveredMessage(r)))
		}
	}()

	entries, err := list(item.Path, w.config.IndexFilename, w.config.IgnoreFilename, w.config.SkipSymlinks)
	if err != nil {
		w.emit(event.InternalException(item.Path, err.Error()))
		return
	}

	scope, err := ignore.Load(item.Path, w.config.IgnoreFilename, item.Parent)
	if err != nil {
		w.emit(event.InternalException(item.Path, err.Error()))
		return
	}

	if w.config.ShowIgnoredOnly {
		// Dotfile entries are silent in normal mode but reported here,
		// per spec.md section 4.4 step 2.
		for _, name := range entries.DotfileEntries {
			w.emit(event.Classification(event.StatusIgnore, filepath.Join(item.Path, name)))
		}
		dirIndex := index.New(item.Path, w.config.IndexFilename, w.config.DefaultAlgo, true, w.emitAdapter())
		dirIndex.ShowIgnoredOnly(scope, entries.Files)
	} else {
		dirIndex := index.New(item.Path, w.config.IndexFilename, w.config.DefaultAlgo, !w.config.Update, w.emitAdapter())
		if err := dirIndex.Load(); err != nil {
			w.emit(event.InternalException(item.Path, err.Error()))
			return
		}
		if err := dirIndex.CalcHashes(scope, entries.Files); err != nil {
			w.emit(event.InternalException(item.Path, err.Error()))
			return
		}
		dirIndex.CheckFix(w.config.Force)

		if w.config.Update {
			saved, err := dirIndex.Save()
			if err != nil {
				w.emit(event.InternalException(item.Path, err.Error()))
				return
			}
			if saved {
				w.emit(event.Classification(event.StatusUpdateIndex, item.Path))
			}
		}
	}

	for _, name := range entries.Subdirs {
		if scope.ShouldIgnore(name) {
			w.emit(event.Classification(event.StatusIgnore, filepath.Join(item.Path, name)+"/"))
			continue
		}
		w.inflight.Add(1)
		w.enqueue <- InputItem{Path: filepath.Join(item.Path, name), Parent: scope}
	}
}

func (w *worker) emitAdapter() index.Sink {
	return func(e event.Event) {
		w.emit(e)
	}
}

func recoveredMessage(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "internal error"
}
