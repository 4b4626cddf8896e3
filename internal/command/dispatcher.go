// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package command

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/motion"
	"github.com/evm100/ultranode/internal/ota"
	"github.com/evm100/ultranode/internal/persist"
	"github.com/evm100/ultranode/internal/slot"
)

// Publisher is the subset of an MQTT client the dispatcher needs to
// publish acks, snapshots, and events. Satisfied by internal/net/mqtt's
// client; kept local to avoid a dependency from command -> net/mqtt.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Snapshotter builds the full status snapshot JSON (spec §6); satisfied
// by internal/status.Builder.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Dispatcher routes incoming MQTT command messages to the engine slots,
// the persistence pipeline, and the motion fade engine, per spec §4.5. All
// Handle calls are expected to run on a single goroutine (the MQTT
// client's message-delivery goroutine) — this is what lets spec §5 call
// slot mutation lock-free from the reader's perspective.
type Dispatcher struct {
	NodeID string

	WS    []*slot.WS
	RGB   []*slot.RGB
	White []*slot.White
	Relay []*slot.Relay

	Fade    *motion.Engine
	Persist *persist.Pipeline
	OTA     ota.Checker
	Pub     Publisher
	Status  Snapshotter
	Log     *zap.SugaredLogger

	PIREnabled bool // spec §9 Open Question 1: no sensor task drives this; config-fixed.
}

func (d *Dispatcher) statusTopic() string       { return "ul/" + d.NodeID + "/evt/status" }
func (d *Dispatcher) otaTopic() string          { return "ul/" + d.NodeID + "/evt/ota" }
func (d *Dispatcher) motionStatusTopic() string { return "ul/" + d.NodeID + "/evt/motion/status" }

// Handle processes one incoming MQTT message. It never returns an error to
// the caller for malformed input — per spec §4.5 step 2 and §8 ("Malformed
// JSON never produces a publish and never mutates state"), those are
// logged and dropped. A non-nil error return means the message's topic
// didn't parse at all (a subscription/topic-grammar bug, not user input).
func (d *Dispatcher) Handle(topic string, payload []byte) error {
	t, err := ParseTopic(topic)
	if err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if !MatchesNode(d.NodeID, t.Node) {
		return nil
	}

	switch t.Path {
	case "status":
		d.publishSnapshot()
		return nil
	case "ota/check":
		d.handleOTACheck()
		return nil
	case "motion/on":
		d.Fade.Cancel()
		return nil
	case "motion/off":
		d.handleMotionOff(payload)
		return nil
	case "motion/status":
		d.publishMotionStatus()
		return nil
	}

	class, ok := t.Class()
	if !ok {
		if d.Log != nil {
			d.Log.Warnw("command: unroutable path", "topic", topic)
		}
		return nil
	}
	d.handleSet(class, t, payload)
	return nil
}

func (d *Dispatcher) handleOTACheck() {
	d.publishAck(ackPayload{Event: "ack", Status: "ok"})
	if d.OTA != nil {
		if err := d.OTA.Check(context.Background(), false); err != nil && d.Log != nil {
			d.Log.Warnw("ota check failed", "err", err)
		}
	}
	d.publishSnapshot()
}

func (d *Dispatcher) handleMotionOff(payload []byte) {
	p, err := decodeMotionOff(payload)
	if err != nil {
		if d.Log != nil {
			d.Log.Warnw("command: dropping malformed motion/off payload", "err", err)
		}
		return
	}
	durationMS, steps := p.durationAndSteps()
	d.Fade.Start(durationMS, steps)
}

func (d *Dispatcher) publishMotionStatus() {
	body, _ := json.Marshal(map[string]any{"pir_enabled": d.PIREnabled})
	d.publish(d.motionStatusTopic(), body)
}

func (d *Dispatcher) publishSnapshot() {
	if d.Status == nil {
		return
	}
	body, err := d.Status.Snapshot()
	if err != nil {
		if d.Log != nil {
			d.Log.Warnw("status snapshot failed", "err", err)
		}
		return
	}
	d.publish(d.statusTopic(), body)
}

// handleSet implements spec §4.5 steps 2-7 for the four destructive
// classes (ws/set, rgb/set, white/set, relay/set).
func (d *Dispatcher) handleSet(class string, t Topic, payload []byte) {
	p, err := decodeSetPayload(payload, t.Index, t.HasIndex)
	if err != nil {
		if d.Log != nil {
			d.Log.Warnw("command: dropping malformed payload", "topic", class+"/set", "err", err)
		}
		return
	}

	// Step 4: cancel any active fade before the state mutation below, so
	// a fade timer firing concurrently observes active=false (spec §9's
	// race rule).
	d.Fade.Cancel()

	_, idx, applied, ack := d.apply(class, p)
	d.publishAck(ack)
	if !applied {
		return
	}
	d.recordPersist(class, idx, payload)
}

// apply resolves the (class, index) slot, applies the command, and
// reports whether the mutation was accepted along with the ack to
// publish. Out-of-range indices are silently ignored (spec §8: "Commands
// with path index N while N exceeds the build's enabled count are
// silently ignored") — no ack, no persistence.
func (d *Dispatcher) apply(class string, p setPayload) (slotKey string, idx int, applied bool, ack ackPayload) {
	switch class {
	case "ws":
		idx = p.index(0)
		if idx < 0 || idx >= len(d.WS) {
			return "", idx, false, ackPayload{}
		}
		s := d.WS[idx]
		bri := p.brightness(s.Brightness())
		ok := s.Apply(p.Effect, bri, p.Params)
		if !ok {
			return "strip", idx, false, errorAck("invalid effect")
		}
		return "strip", idx, true, ackPayload{Event: "ack", Status: "ok", SlotKey: "strip", Index: idx, Effect: p.Effect, Params: p.Params}

	case "rgb":
		idx = p.index(0)
		if idx < 0 || idx >= len(d.RGB) {
			return "", idx, false, ackPayload{}
		}
		s := d.RGB[idx]
		bri := p.brightness(s.Brightness())
		ok := s.Apply(p.Effect, bri, p.Params)
		if !ok {
			return "strip", idx, false, errorAck("invalid effect")
		}
		return "strip", idx, true, ackPayload{Event: "ack", Status: "ok", SlotKey: "strip", Index: idx, Effect: p.Effect, Params: p.Params, Brightness: &bri}

	case "white":
		idx = p.index(0)
		if idx < 0 || idx >= len(d.White) {
			return "", idx, false, ackPayload{}
		}
		s := d.White[idx]
		bri := p.brightness(s.Brightness())
		ok := s.Apply(p.Effect, bri, p.Params)
		if !ok {
			return "channel", idx, false, errorAck("invalid effect")
		}
		return "channel", idx, true, ackPayload{Event: "ack", Status: "ok", SlotKey: "channel", Index: idx, Effect: p.Effect, Params: p.Params, Brightness: &bri}

	case "relay":
		idx = p.index(0)
		if idx < 0 || idx >= len(d.Relay) {
			return "", idx, false, ackPayload{}
		}
		s := d.Relay[idx]
		ok := s.Apply(p.Effect, p.Params)
		if !ok {
			return "channel", idx, false, errorAck("invalid effect")
		}
		return "channel", idx, true, ackPayload{Event: "ack", Status: "ok", SlotKey: "channel", Index: idx, Effect: p.Effect, Params: p.Params}

	default:
		return "", 0, false, ackPayload{}
	}
}

// Restore replays a persisted payload for (class, idx) directly into the
// slot at startup, bypassing ack publication and re-persistence (the
// payload is already the store's own record of this slot's state). Used
// by runtime wiring during boot recovery.
func (d *Dispatcher) Restore(class string, idx int, payload []byte) {
	p, err := decodeSetPayload(payload, idx, true)
	if err != nil {
		if d.Log != nil {
			d.Log.Warnw("command: dropping unreadable persisted payload", "class", class, "index", idx, "err", err)
		}
		return
	}
	d.apply(class, p)
}

func (d *Dispatcher) recordPersist(class string, idx int, raw []byte) {
	if d.Persist == nil {
		return
	}
	var key string
	switch class {
	case "ws":
		key = fmt.Sprintf("ws%d", idx)
	case "rgb":
		key = fmt.Sprintf("rgb%d", idx)
	case "white":
		key = fmt.Sprintf("wht%d", idx)
	case "relay":
		key = fmt.Sprintf("rly%d", idx)
	default:
		return
	}
	d.Persist.Record(key, raw)
}

func (d *Dispatcher) publishAck(a ackPayload) {
	if a.Event == "" {
		return
	}
	body, err := json.Marshal(a)
	if err != nil {
		if d.Log != nil {
			d.Log.Warnw("ack marshal failed", "err", err)
		}
		return
	}
	d.publish(d.statusTopic(), body)
}

func (d *Dispatcher) publish(topic string, body []byte) {
	if d.Pub == nil {
		return
	}
	if err := d.Pub.Publish(topic, 0, false, body); err != nil && d.Log != nil {
		d.Log.Warnw("publish failed", "topic", topic, "err", err)
	}
}
