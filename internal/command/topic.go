// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package command implements the MQTT command dispatcher (spec §4.5):
// topic parsing, JSON payload validation, routing to the engine slots,
// acknowledgement publication, and handing accepted payloads to the
// persistence pipeline.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic is a parsed `ul/<node>/cmd/<path>` command topic.
type Topic struct {
	Node     string
	Path     string // e.g. "ws/set", "motion/off", "status"
	Index    int    // trailing /<n> if present
	HasIndex bool
}

// ParseTopic splits an incoming MQTT topic into its node and command path,
// per spec §4.5's grammar:
//
//	ul/<node>/cmd/<path>
//	<path> ∈ { ws/set[/<index>] | rgb/set[/<index>] | white/set[/<index>]
//	         | ota/check | motion/on | motion/off | motion/status | status }
func ParseTopic(topic string) (Topic, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[0] != "ul" || parts[2] != "cmd" {
		return Topic{}, fmt.Errorf("command: malformed topic %q", topic)
	}
	t := Topic{Node: parts[1]}
	rest := parts[3:]

	switch rest[0] {
	case "ws", "rgb", "white", "relay":
		if len(rest) < 2 || rest[1] != "set" {
			return Topic{}, fmt.Errorf("command: unknown path %q", topic)
		}
		t.Path = rest[0] + "/set"
		if len(rest) >= 3 {
			idx, err := strconv.Atoi(rest[2])
			if err != nil {
				return Topic{}, fmt.Errorf("command: bad index in %q: %w", topic, err)
			}
			t.Index = idx
			t.HasIndex = true
		}
	case "ota":
		if len(rest) != 2 || rest[1] != "check" {
			return Topic{}, fmt.Errorf("command: unknown path %q", topic)
		}
		t.Path = "ota/check"
	case "motion":
		if len(rest) != 2 {
			return Topic{}, fmt.Errorf("command: unknown path %q", topic)
		}
		switch rest[1] {
		case "on", "off", "status":
			t.Path = "motion/" + rest[1]
		default:
			return Topic{}, fmt.Errorf("command: unknown path %q", topic)
		}
	case "status":
		if len(rest) != 1 {
			return Topic{}, fmt.Errorf("command: unknown path %q", topic)
		}
		t.Path = "status"
	default:
		return Topic{}, fmt.Errorf("command: unknown path %q", topic)
	}
	return t, nil
}

// MatchesNode reports whether this node should act on a topic addressed
// to addressedNode, per spec §8: "Subscribing to ul/+/cmd/... and
// publishing with a different node's <node> must NOT change this node's
// state unless <node> equals '+' literal."
func MatchesNode(selfID, addressedNode string) bool {
	return addressedNode == selfID || addressedNode == "+"
}

// Class reports the output class a ws/rgb/white/relay "<class>/set" path
// addresses, and false for any other path.
func (t Topic) Class() (string, bool) {
	switch t.Path {
	case "ws/set", "rgb/set", "white/set", "relay/set":
		return strings.TrimSuffix(t.Path, "/set"), true
	default:
		return "", false
	}
}
