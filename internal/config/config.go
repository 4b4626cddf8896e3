// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config models the build-time peripheral wiring spec §1 treats as
// an external collaborator ("build-time configuration surface... only
// their interfaces are specified"). Here it is loaded once at process
// start from a YAML file via viper, the way EdgxCloud-EdgeFlow and
// tphakala-birdnet-go load their broker/hardware maps, rather than
// reverse-engineered from a real build system this repo doesn't have.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// WSStrip is one addressable-strip slot's build-time wiring.
type WSStrip struct {
	Enabled   bool `mapstructure:"enabled"`
	NumPixels int  `mapstructure:"num_pixels"`
}

// RGBStrip is one analog-RGB slot's build-time wiring.
type RGBStrip struct {
	Enabled bool `mapstructure:"enabled"`
}

// WhiteChannel is one white-PWM slot's build-time wiring.
type WhiteChannel struct {
	Enabled bool `mapstructure:"enabled"`
}

// RelayChannel is one relay slot's build-time wiring (spec §9 Open
// Question, resolved in SPEC_FULL.md §C.2: optional fourth class).
type RelayChannel struct {
	Enabled bool `mapstructure:"enabled"`
}

// Wireless holds the station credentials the Wi-Fi supervisor needs (spec
// §4.8, §6: "missing SSID blocks Wi-Fi startup"). A real deployment
// provisions these from NVS, out of scope per spec §1; here they are a
// config-file-backed stand-in, wired into internal/creds.ConfigStore.
type Wireless struct {
	SSID     string `mapstructure:"ssid"`
	PSK      string `mapstructure:"psk"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MQTT holds the broker connection parameters the connectivity
// supervisor's §4.10 start procedure needs to build a client config from.
type MQTT struct {
	BrokerURI      string `mapstructure:"broker_uri"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	DialHost       string `mapstructure:"dial_host"`
	DialPort       int    `mapstructure:"dial_port"`
	CACertFile     string `mapstructure:"ca_cert_file"`
	SkipCNVerify   bool   `mapstructure:"skip_cn_verify"`
	ExpectedCN     string `mapstructure:"expected_cn"`
	ClientCertFile string `mapstructure:"client_cert_file"`
	ClientKeyFile  string `mapstructure:"client_key_file"`
}

// Rates holds the three engines' fixed frame rates (spec §4.2-§4.4).
type Rates struct {
	WSHz    float64 `mapstructure:"ws_hz"`
	RGBHz   float64 `mapstructure:"rgb_hz"`
	WhiteHz float64 `mapstructure:"white_hz"`
}

// Config is the complete per-node build-time configuration.
type Config struct {
	NodeID string `mapstructure:"node_id"`

	WS    [2]WSStrip      `mapstructure:"ws"`
	RGB   [4]RGBStrip     `mapstructure:"rgb"`
	White [4]WhiteChannel `mapstructure:"white"`
	Relay [4]RelayChannel `mapstructure:"relay"`

	Wireless Wireless `mapstructure:"wireless"`
	MQTT     MQTT     `mapstructure:"mqtt"`
	Rates    Rates    `mapstructure:"rates"`

	PersistDBPath string `mapstructure:"persist_db_path"`
}

// Default returns the configuration used when no file is supplied: strip 0
// enabled at 60 pixels, everything else disabled, rates per spec §2's
// "typically" figures.
func Default() Config {
	return Config{
		NodeID:        "ultranode-000",
		WS:            [2]WSStrip{{Enabled: true, NumPixels: 60}},
		Rates:         Rates{WSHz: 60, RGBHz: 200, WhiteHz: 200},
		MQTT:          MQTT{BrokerURI: "tcp://localhost:1883"},
		PersistDBPath: "ultranode.db",
	}
}

// Load reads configuration from path (YAML) layered over Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
