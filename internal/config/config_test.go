// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultEnablesOnlyFirstWSStrip(t *testing.T) {
	cfg := Default()
	if !cfg.WS[0].Enabled || cfg.WS[0].NumPixels != 60 {
		t.Fatalf("WS[0] = %+v, want enabled with 60 pixels", cfg.WS[0])
	}
	if cfg.WS[1].Enabled {
		t.Fatal("WS[1] should be disabled by default")
	}
	for _, c := range cfg.RGB {
		if c.Enabled {
			t.Fatal("no RGB channel should be enabled by default")
		}
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.NodeID != Default().NodeID {
		t.Fatalf("NodeID = %q, want default %q", cfg.NodeID, Default().NodeID)
	}
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	yaml := "node_id: living-room\nwireless:\n  ssid: home-net\nmqtt:\n  broker_uri: tcp://broker:1883\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NodeID != "living-room" {
		t.Fatalf("NodeID = %q, want living-room", cfg.NodeID)
	}
	if cfg.Wireless.SSID != "home-net" {
		t.Fatalf("Wireless.SSID = %q, want home-net", cfg.Wireless.SSID)
	}
	if cfg.MQTT.BrokerURI != "tcp://broker:1883" {
		t.Fatalf("MQTT.BrokerURI = %q, want tcp://broker:1883", cfg.MQTT.BrokerURI)
	}
	// Fields not present in the override file must keep their defaults.
	if cfg.Rates.WSHz != 60 {
		t.Fatalf("Rates.WSHz = %v, want default 60", cfg.Rates.WSHz)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/node.yaml"); err == nil {
		t.Fatal("expected Load to error on a missing file")
	}
}
