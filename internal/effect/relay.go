// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

// Relay is the optional fourth output class (spec §9 Open Question:
// "present in some copies, absent in others... identical shape to white").
// It reuses the WhiteEffect contract (a scalar per-frame output) since a
// relay is simply a channel with no continuous intensity, only "fully on"
// or "fully off" — the relay slot treats a render output of 128 or more as
// on and anything lower as off before driving the digital output.
var Relay = NewRegistry[WhiteEffect](
	Descriptor[WhiteEffect]{Name: "off", New: func() WhiteEffect { return &relayFixed{on: false} }},
	Descriptor[WhiteEffect]{Name: "on", New: func() WhiteEffect { return &relayFixed{on: true} }},
	Descriptor[WhiteEffect]{Name: "blink", New: func() WhiteEffect { return &whiteBlink{} }},
)

type relayFixed struct {
	on bool
}

func (e *relayFixed) Init() {}

func (e *relayFixed) ApplyParams(Params) {}

func (e *relayFixed) Render(uint64) uint8 {
	if e.on {
		return 255
	}
	return 0
}
