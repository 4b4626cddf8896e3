// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package persist

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FlushDelay is the coalescing window a slot's pending write waits out
// before it is handed to the writer task (spec §4.6).
const FlushDelay = 3 * time.Second

// queueDepth bounds the writer task's inbox; a full queue re-arms the
// slot's timer rather than blocking the recorder (spec §4.6).
const queueDepth = 16

type slotState struct {
	mu      sync.Mutex
	pending []byte
	dirty   bool
	timer   *time.Timer
}

// Pipeline is the per-node write-behind persistence pipeline: one
// slotState per key, one shared writer goroutine.
type Pipeline struct {
	store *Store
	log   *zap.SugaredLogger

	slots map[string]*slotState
	queue chan string

	stop chan struct{}
	done chan struct{}
}

// NewPipeline constructs a pipeline over keys (the fixed slot key set,
// e.g. "ws0", "wht2", "rly0") and recovers nothing itself — callers use
// Recover to read prior state before Start.
func NewPipeline(store *Store, log *zap.SugaredLogger, keys []string) *Pipeline {
	p := &Pipeline{
		store: store,
		log:   log,
		slots: make(map[string]*slotState, len(keys)),
		queue: make(chan string, queueDepth),
	}
	for _, k := range keys {
		p.slots[k] = &slotState{}
	}
	return p
}

// Recover returns the previously persisted payload for key, or
// (nil, false) if the key was never written (spec §9's "missing keys are
// no prior state").
func (p *Pipeline) Recover(key string) ([]byte, bool) {
	return p.store.Get(key)
}

func (p *Pipeline) Name() string { return "persist.pipeline" }

func (p *Pipeline) Start(_ context.Context) error {
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.writerLoop()
	}()
	return nil
}

func (p *Pipeline) Stop() error {
	close(p.stop)
	<-p.done
	for _, s := range p.slots {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}
	return nil
}

// Record accepts a new payload for key. A payload identical to the
// currently pending one is a no-op; otherwise it atomically replaces the
// pending buffer and (re)arms the slot's flush timer.
func (p *Pipeline) Record(key string, payload []byte) {
	s, ok := p.slots[key]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty && bytes.Equal(s.pending, payload) {
		return
	}
	s.pending = append([]byte(nil), payload...)
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(FlushDelay, func() { p.enqueue(key) })
}

func (p *Pipeline) enqueue(key string) {
	select {
	case p.queue <- key:
	default:
		// Queue full: re-arm so this slot is retried instead of dropped.
		if s, ok := p.slots[key]; ok {
			s.mu.Lock()
			s.timer = time.AfterFunc(FlushDelay, func() { p.enqueue(key) })
			s.mu.Unlock()
		}
	}
}

func (p *Pipeline) writerLoop() {
	for {
		select {
		case <-p.stop:
			return
		case key := <-p.queue:
			p.flush(key)
		}
	}
}

func (p *Pipeline) flush(key string) {
	s, ok := p.slots[key]
	if !ok {
		return
	}
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	payload := s.pending
	s.dirty = false
	s.mu.Unlock()

	if err := p.store.Put(key, payload); err != nil {
		if p.log != nil {
			p.log.Warnw("persist write failed, re-arming", "key", key, "err", err)
		}
		s.mu.Lock()
		s.dirty = true
		s.timer = time.AfterFunc(FlushDelay, func() { p.enqueue(key) })
		s.mu.Unlock()
	}
}
