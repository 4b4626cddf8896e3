// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package strip defines the driver interface for addressable (WS2812-class)
// LED strips and a software simulation backend.
//
// It is adapted from periph.io/x/periph's two addressable-strip drivers:
// experimental/devices/nrzled (raw NRZ bit-banged or SPI-shifted strips, the
// WS2812 family) and devices/apa102 (clocked SPI strips). Both share the
// same shape this package keeps: an immutable pixel-count/channel-count
// configuration, a raw output buffer sized for the wire encoding, and a
// Commit method that performs the actual (blocking) transfer. What's
// dropped is the image.Image/draw.Drawer compositing surface nrzled
// exposes — the rendering engine already produces a flat RGB buffer per
// frame, so there is no need for a second image abstraction on top of it.
package strip

import "fmt"

// Driver commits one full frame of pixels to a physical strip. A frame is a
// flat, tightly packed buffer of 3 bytes per pixel (R, G, B), matching the
// per-strip byte buffer the addressable engine fills (spec §4.2).
//
// Implementations must be safe to call from a single dedicated goroutine
// only (the engine's refresher task) — Commit is expected to block for the
// duration of the wire transfer, which is the entire reason the refresher
// task exists separately from the frame-evaluation producer task.
type Driver interface {
	// NumPixels is the pixel count this driver was configured for.
	NumPixels() int
	// Commit blits pixels (len(pixels) == 3*NumPixels()) to the strip.
	Commit(pixels []byte) error
	// Halt blanks the strip (all pixels off) and releases any held
	// resources. Safe to call multiple times.
	Halt() error
}

// SimDriver is a software backend used when no physical strip transport is
// wired up (default in this repository — see spec §1's non-goal on driver
// particulars). It keeps the most recently committed frame for inspection,
// exactly as periph's conntest/spitest fakes record the last transaction
// for test assertions.
type SimDriver struct {
	numPixels int
	last      []byte
	commits   int
}

// NewSimDriver returns a strip simulator sized for numPixels LEDs.
func NewSimDriver(numPixels int) *SimDriver {
	return &SimDriver{numPixels: numPixels, last: make([]byte, 3*numPixels)}
}

func (s *SimDriver) NumPixels() int { return s.numPixels }

func (s *SimDriver) Commit(pixels []byte) error {
	if len(pixels) != 3*s.numPixels {
		return fmt.Errorf("strip: commit: expected %d bytes, got %d", 3*s.numPixels, len(pixels))
	}
	copy(s.last, pixels)
	s.commits++
	return nil
}

func (s *SimDriver) Halt() error {
	for i := range s.last {
		s.last[i] = 0
	}
	return nil
}

// Last returns a copy of the most recently committed frame, for tests and
// for a local preview surface.
func (s *SimDriver) Last() []byte {
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out
}

// Commits returns the number of frames committed so far.
func (s *SimDriver) Commits() int { return s.commits }
