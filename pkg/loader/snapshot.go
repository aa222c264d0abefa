package loader

import (
	"context"
	"sync"

	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

// Snapshot owns the current load of a source together with the memoized
// flattened view of whatever it loaded.
type Snapshot struct {
	ctx       context.Context
	src       core.Source
	flattener sensor.Flattener

	mu        sync.RWMutex
	current   *Result
	listeners []func(*Result)
}

// NewSnapshot starts loading src immediately.
func NewSnapshot(ctx context.Context, src core.Source) *Snapshot {
	s := &Snapshot{ctx: ctx, src: src}
	s.current = Start(ctx, src)
	return s
}

func (s *Snapshot) Source() core.Source { return s.src }

// Current returns the latest load.
func (s *Snapshot) Current() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnReload registers fn to be called once each reloaded Result settles.
func (s *Snapshot) OnReload(fn func(*Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload starts a fresh load and makes it current. Requests already holding
// the previous Result keep using it.
func (s *Snapshot) Reload() *Result {
	r := Start(s.ctx, s.src)
	s.mu.Lock()
	s.current = r
	listeners := append([]func(*Result){}, s.listeners...)
	s.mu.Unlock()

	if len(listeners) > 0 {
		go func() {
			<-r.Done()
			for _, fn := range listeners {
				fn(r)
			}
		}()
	}
	return r
}

// Tags returns the flattened tags of the current load along with the Result
// they came from. Tags is nil while loading or after a failure.
func (s *Snapshot) Tags() ([]sensor.FlattenedTag, *Result) {
	r := s.Current()
	if r.Status() != StatusReady {
		return nil, r
	}
	return s.flattener.Tags(r.Dataset()), r
}

// Walks reports how many times the hierarchy has been flattened.
func (s *Snapshot) Walks() int { return s.flattener.Walks() }
