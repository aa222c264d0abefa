// Package loader runs the one-shot snapshot fetch and exposes its progress
// as a small future: a Result starts out loading and settles exactly once,
// either ready with a dataset or failed with a user-facing message.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// ErrLoadFailed is the generic failure reported by sources.
var ErrLoadFailed = core.ErrLoadFailed

// LoadError wraps a failed fetch. Its message is the underlying error's,
// unchanged, since it is shown to users as is.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return ErrLoadFailed.Error()
	}
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is the outcome of a single fetch.
type Result struct {
	mu      sync.RWMutex
	status  Status
	dataset *sensor.Dataset
	err     error
	started time.Time
	done    chan struct{}
}

// Start fetches src once in the background. The fetch is never retried.
func Start(ctx context.Context, src core.Source) *Result {
	r := &Result{
		status:  StatusLoading,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go r.run(ctx, src)
	return r
}

func (r *Result) run(ctx context.Context, src core.Source) {
	logger := log.ForService("loader")
	logger.Debugf("fetching %s snapshot from %s", src.Type(), src.Location())

	ds, err := src.Fetch(ctx)
	if err == nil && ds == nil {
		err = ErrLoadFailed
	}
	metrics.ObserveLoad(src.Type(), err, time.Since(r.started))

	r.mu.Lock()
	if err != nil {
		r.status = StatusError
		r.err = &LoadError{Source: src.Location(), Err: err}
		logger.Errorf("loading %s: %v", src.Location(), err)
	} else {
		r.status = StatusReady
		r.dataset = ds
		logger.Infof("loaded %d tags from %s in %s", ds.TagCount(), src.Location(), time.Since(r.started).Round(time.Millisecond))
	}
	r.mu.Unlock()
	close(r.done)
}

func (r *Result) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Dataset returns the loaded dataset, or nil unless the status is ready.
func (r *Result) Dataset() *sensor.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dataset
}

// Err returns the *LoadError once the fetch has failed.
func (r *Result) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Done is closed when the result settles.
func (r *Result) Done() <-chan struct{} { return r.done }

// Wait blocks until the result settles or ctx ends.
func (r *Result) Wait(ctx context.Context) (*sensor.Dataset, error) {
	select {
	case <-r.done:
		return r.Dataset(), r.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Message is the text shown for a failed load.
func (r *Result) Message() string {
	err := r.Err()
	if err == nil {
		return ""
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.Error()
	}
	return err.Error()
}
