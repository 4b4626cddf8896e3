// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package effect implements the per-output-class effect registries (spec
// §4.1): a static, ordered list of named effect descriptors, looked up
// case-sensitively, with the first entry acting as the class's default
// initial effect.
//
// The registry shape is adapted from periph.go's driver registry
// (Register/MustRegister/byName, deterministic ordering; a duplicate name
// panics when the registry is built) — except an effect registry never "initializes"
// anything at registration time; it only remembers how to construct a
// fresh, per-slot effect instance, since spec §4.1 requires "effects MUST
// NOT share instances across slots."
package effect

import "fmt"

// Descriptor is the immutable {name, constructor} pair spec §3 calls the
// "effect descriptor" triple (init/render/apply_parameters are methods on
// the value New returns, not free functions, which is the idiomatic Go
// rendering of that triple).
type Descriptor[T any] struct {
	Name string
	New  func() T
}

// Registry is a class's ordered, immutable effect list.
type Registry[T any] struct {
	list   []Descriptor[T]
	byName map[string]int
}

// NewRegistry builds a registry from descriptors in their intended display
// and default-selection order. The first descriptor is the class's default
// initial effect (spec §4.1).
func NewRegistry[T any](descs ...Descriptor[T]) *Registry[T] {
	r := &Registry[T]{byName: make(map[string]int, len(descs))}
	for _, d := range descs {
		r.mustRegister(d)
	}
	return r
}

func (r *Registry[T]) mustRegister(d Descriptor[T]) {
	if _, ok := r.byName[d.Name]; ok {
		panic(fmt.Sprintf("effect: duplicate name %q", d.Name))
	}
	r.byName[d.Name] = len(r.list)
	r.list = append(r.list, d)
}

// Default returns the class's first-registered effect name.
func (r *Registry[T]) Default() string {
	if len(r.list) == 0 {
		panic("effect: empty registry")
	}
	return r.list[0].Name
}

// New constructs a fresh effect instance by name. The bool is false when
// the name is absent from the registry — spec §4.1: "absent names cause
// the command to fail validation."
func (r *Registry[T]) New(name string) (T, bool) {
	i, ok := r.byName[name]
	if !ok {
		var zero T
		return zero, false
	}
	return r.list[i].New(), true
}

// Has reports whether name is a registered effect for this class.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered effect names in registration order.
func (r *Registry[T]) Names() []string {
	names := make([]string, len(r.list))
	for i, d := range r.list {
		names[i] = d.Name
	}
	return names
}
