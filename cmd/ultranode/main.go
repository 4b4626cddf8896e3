// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command ultranode runs (or validates the configuration of) the UltraNode
// lighting-controller daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/config"
	"github.com/evm100/ultranode/internal/creds"
	"github.com/evm100/ultranode/internal/runtime"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "ultranode",
		Short: "UltraNode lighting-controller daemon",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults built in)")

	root.AddCommand(serveCmd())
	root.AddCommand(checkConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return fmt.Errorf("ultranode: build logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck

			sugar := log.Sugar()
			node, err := runtime.New(cfg, sugar, credStore(cfg))
			if err != nil {
				return fmt.Errorf("ultranode: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := node.Start(ctx); err != nil {
				return fmt.Errorf("ultranode: start: %w", err)
			}
			sugar.Infow("ultranode started", "node_id", cfg.NodeID)

			<-ctx.Done()
			sugar.Infow("ultranode shutting down")
			return node.Stop()
		},
	}
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "load and validate the config file without starting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("ok: node_id=%s ws_strips=%d rgb_strips=%d white_channels=%d relay_channels=%d broker=%s\n",
				cfg.NodeID, len(cfg.WS), len(cfg.RGB), len(cfg.White), len(cfg.Relay), cfg.MQTT.BrokerURI)
			return nil
		},
	}
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// credStore builds the credential collaborator from config until a real
// NVS-backed store exists (spec §1: out of scope, interface only).
func credStore(cfg config.Config) creds.Store {
	var cert *creds.MQTTClientCert
	if cfg.MQTT.ClientCertFile != "" {
		certPEM, err := os.ReadFile(cfg.MQTT.ClientCertFile)
		if err == nil {
			keyPEM, err := os.ReadFile(cfg.MQTT.ClientKeyFile)
			if err == nil {
				cert = &creds.MQTTClientCert{CertPEM: certPEM, KeyPEM: keyPEM}
			}
		}
	}
	return creds.ConfigStore{
		Wireless: creds.Wireless{
			SSID:     cfg.Wireless.SSID,
			PSK:      cfg.Wireless.PSK,
			Username: cfg.Wireless.Username,
			Password: cfg.Wireless.Password,
		},
		Cert: cert,
	}
}
