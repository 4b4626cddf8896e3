// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package task provides the uniform subsystem bring-up/tear-down scaffold
// spec §3/§5 describes: "All stateful entities are process-wide singletons
// created during startup in a fixed order (storage → task scaffolding →
// persistence → engines → supervisor → MQTT) and torn down in reverse."
//
// It is a direct simplification of periph.go's driver registry
// (Register/Init/explodeStages/loadStage): that registry solves an
// arbitrary dependency DAG and fans each resolved stage out over
// goroutines with a WaitGroup. This node has no arbitrary DAG — the boot
// order is a fixed spec requirement — so the topological solver is
// dropped and replaced with an explicit ordered list of stages, but the
// "fan a stage out over goroutines, join, then move to the next stage" and
// "failure in a stage aborts the remaining stages" shapes are kept
// verbatim from loadStage/Init.
package task

import (
	"context"
	"fmt"
	"sync"
)

// Subsystem is a process-wide singleton with an explicit lifecycle (spec
// §3's "owned by the top-level runtime and borrowed mutably only during
// init/stop" design note).
type Subsystem interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// Scaffold is an ordered sequence of stages; each stage's subsystems start
// concurrently, and a stage only begins once the previous stage has fully
// started. Teardown runs stages in reverse, subsystem-by-subsystem in
// reverse order within each stage.
type Scaffold struct {
	stages  [][]Subsystem
	started []Subsystem // flat, in the order Start succeeded; reverse for Stop.
	mu      sync.Mutex
}

// NewScaffold builds a scaffold from stages in boot order.
func NewScaffold(stages ...[]Subsystem) *Scaffold {
	return &Scaffold{stages: stages}
}

// Start brings up every stage in order. On the first subsystem failure in
// a stage, every subsystem already started (across all prior stages, and
// any siblings in the failing stage that did succeed) is stopped in
// reverse order before Start returns the error.
func (s *Scaffold) Start(ctx context.Context) error {
	for i, stage := range s.stages {
		if err := s.startStage(ctx, stage); err != nil {
			s.Stop()
			return fmt.Errorf("task: stage %d: %w", i, err)
		}
	}
	return nil
}

func (s *Scaffold) startStage(ctx context.Context, stage []Subsystem) error {
	type result struct {
		sub Subsystem
		err error
	}
	results := make(chan result, len(stage))
	var wg sync.WaitGroup
	for _, sub := range stage {
		wg.Add(1)
		go func(sub Subsystem) {
			defer wg.Done()
			results <- result{sub, sub.Start(ctx)}
		}(sub)
	}
	wg.Wait()
	close(results)

	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.sub.Name(), r.err)
			}
			continue
		}
		s.mu.Lock()
		s.started = append(s.started, r.sub)
		s.mu.Unlock()
	}
	return firstErr
}

// Stop tears down every started subsystem in reverse start order,
// collecting (not stopping on) individual errors.
func (s *Scaffold) Stop() error {
	s.mu.Lock()
	started := s.started
	s.started = nil
	s.mu.Unlock()

	var firstErr error
	for i := len(started) - 1; i >= 0; i-- {
		if err := started[i].Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", started[i].Name(), err)
		}
	}
	return firstErr
}

// Core is a virtual pin target mirroring spec §5's dual-core layout:
// networking on core 0, rendering on core 1. Go has no API to bind a
// goroutine to a specific OS-reported CPU core, so Core is informational
// only — it's attached to the goroutine name used in logs/panics so the
// intended placement survives into telemetry even though actual scheduling
// is left to the Go runtime, exactly as spec §5 says a single-core part
// "uses the same priorities without pinning."
type Core int

const (
	CoreNetworking Core = 0
	CoreRendering  Core = 1
)

func (c Core) String() string {
	if c == CoreRendering {
		return "core1:render"
	}
	return "core0:net"
}

// Go spawns fn on its own goroutine, recovering a panic into a log line
// instead of crashing the process — the nearest stand-in for a FreeRTOS
// task's isolated crash domain (spec §5: "No task supports external
// cancellation; teardown is by stop() which deletes the task").
func Go(core Core, name string, onPanic func(core Core, name string, r any), fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(core, name, r)
			}
		}()
		fn()
	}()
}
