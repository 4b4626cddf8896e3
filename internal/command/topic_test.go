// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package command

import "testing"

func TestParseTopic(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		want    Topic
		wantErr bool
	}{
		{"ws set no index", "ul/node-1/cmd/ws/set", Topic{Node: "node-1", Path: "ws/set"}, false},
		{"ws set with index", "ul/node-1/cmd/ws/set/1", Topic{Node: "node-1", Path: "ws/set", Index: 1, HasIndex: true}, false},
		{"rgb set", "ul/node-1/cmd/rgb/set/2", Topic{Node: "node-1", Path: "rgb/set", Index: 2, HasIndex: true}, false},
		{"white set", "ul/node-1/cmd/white/set", Topic{Node: "node-1", Path: "white/set"}, false},
		{"relay set", "ul/node-1/cmd/relay/set/0", Topic{Node: "node-1", Path: "relay/set", Index: 0, HasIndex: true}, false},
		{"ota check", "ul/node-1/cmd/ota/check", Topic{Node: "node-1", Path: "ota/check"}, false},
		{"motion on", "ul/node-1/cmd/motion/on", Topic{Node: "node-1", Path: "motion/on"}, false},
		{"motion off", "ul/node-1/cmd/motion/off", Topic{Node: "node-1", Path: "motion/off"}, false},
		{"motion status", "ul/node-1/cmd/motion/status", Topic{Node: "node-1", Path: "motion/status"}, false},
		{"status", "ul/node-1/cmd/status", Topic{Node: "node-1", Path: "status"}, false},
		{"wildcard node", "ul/+/cmd/ws/set", Topic{Node: "+", Path: "ws/set"}, false},
		{"bad prefix", "foo/node-1/cmd/ws/set", Topic{}, true},
		{"missing cmd segment", "ul/node-1/evt/ws/set", Topic{}, true},
		{"unknown class", "ul/node-1/cmd/strobe/set", Topic{}, true},
		{"ws missing set", "ul/node-1/cmd/ws", Topic{}, true},
		{"bad index", "ul/node-1/cmd/ws/set/abc", Topic{}, true},
		{"unknown motion path", "ul/node-1/cmd/motion/reset", Topic{}, true},
		{"ota missing check", "ul/node-1/cmd/ota", Topic{}, true},
		{"status with trailing segment", "ul/node-1/cmd/status/extra", Topic{}, true},
		{"too short", "ul/node-1/cmd", Topic{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTopic(tc.topic)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTopic(%q): expected error, got none", tc.topic)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTopic(%q): unexpected error: %v", tc.topic, err)
			}
			if got != tc.want {
				t.Fatalf("ParseTopic(%q) = %+v, want %+v", tc.topic, got, tc.want)
			}
		})
	}
}

func TestMatchesNode(t *testing.T) {
	cases := []struct {
		self, addressed string
		want            bool
	}{
		{"node-1", "node-1", true},
		{"node-1", "+", true},
		{"node-1", "node-2", false},
		{"node-1", "", false},
	}
	for _, tc := range cases {
		if got := MatchesNode(tc.self, tc.addressed); got != tc.want {
			t.Errorf("MatchesNode(%q, %q) = %v, want %v", tc.self, tc.addressed, got, tc.want)
		}
	}
}

func TestTopicClass(t *testing.T) {
	cases := []struct {
		path      string
		wantClass string
		wantOK    bool
	}{
		{"ws/set", "ws", true},
		{"rgb/set", "rgb", true},
		{"white/set", "white", true},
		{"relay/set", "relay", true},
		{"status", "", false},
		{"motion/off", "", false},
	}
	for _, tc := range cases {
		top := Topic{Path: tc.path}
		class, ok := top.Class()
		if class != tc.wantClass || ok != tc.wantOK {
			t.Errorf("Topic{Path:%q}.Class() = (%q, %v), want (%q, %v)", tc.path, class, ok, tc.wantClass, tc.wantOK)
		}
	}
}
