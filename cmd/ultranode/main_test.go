// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evm100/ultranode/internal/config"
)

func TestCredStoreWithoutClientCertConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Wireless.SSID = "home-net"
	cfg.Wireless.PSK = "secret"

	store := credStore(cfg)
	w, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.SSID != "home-net" || w.PSK != "secret" {
		t.Fatalf("Load() = %+v, unexpected", w)
	}
	if _, ok := store.MQTTClientCert(); ok {
		t.Fatal("expected no client cert when no files are configured")
	}
}

func TestCredStoreReadsClientCertFromDisk(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "client.crt")
	keyPath := filepath.Join(dir, "client.key")
	if err := os.WriteFile(certPath, []byte("cert-bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile cert: %v", err)
	}
	if err := os.WriteFile(keyPath, []byte("key-bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile key: %v", err)
	}

	cfg := config.Default()
	cfg.MQTT.ClientCertFile = certPath
	cfg.MQTT.ClientKeyFile = keyPath

	store := credStore(cfg)
	cert, ok := store.MQTTClientCert()
	if !ok {
		t.Fatal("expected a client cert to be loaded")
	}
	if string(cert.CertPEM) != "cert-bytes" || string(cert.KeyPEM) != "key-bytes" {
		t.Fatalf("cert = %+v, unexpected", cert)
	}
}

func TestCredStoreSkipsCertOnReadFailure(t *testing.T) {
	cfg := config.Default()
	cfg.MQTT.ClientCertFile = "/nonexistent/client.crt"
	cfg.MQTT.ClientKeyFile = "/nonexistent/client.key"

	store := credStore(cfg)
	if _, ok := store.MQTTClientCert(); ok {
		t.Fatal("expected a missing cert file to silently skip rather than error")
	}
}

func TestCheckConfigCmdRunEAcceptsDefaultConfig(t *testing.T) {
	cmd := checkConfigCmd()
	configPath = ""
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}
}

func TestCheckConfigCmdRunEFailsOnMissingFile(t *testing.T) {
	cmd := checkConfigCmd()
	configPath = "/nonexistent/node.yaml"
	defer func() { configPath = "" }()
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected RunE to fail for a missing config file")
	}
}
