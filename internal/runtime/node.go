// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package runtime assembles every subsystem into the fixed boot order spec
// §3 requires ("storage → task scaffolding → persistence → engines →
// supervisor → MQTT") and tears them down in reverse.
package runtime

import (
	"context"
	"fmt"
	goruntime "runtime"
	"time"

	"go.uber.org/zap"

	"github.com/evm100/ultranode/internal/command"
	"github.com/evm100/ultranode/internal/config"
	"github.com/evm100/ultranode/internal/creds"
	"github.com/evm100/ultranode/internal/hal/gpio"
	"github.com/evm100/ultranode/internal/hal/physic"
	"github.com/evm100/ultranode/internal/hal/pwm"
	"github.com/evm100/ultranode/internal/hal/strip"
	"github.com/evm100/ultranode/internal/engine"
	"github.com/evm100/ultranode/internal/health"
	"github.com/evm100/ultranode/internal/motion"
	mqttnet "github.com/evm100/ultranode/internal/net/mqtt"
	"github.com/evm100/ultranode/internal/net/sntp"
	"github.com/evm100/ultranode/internal/net/wifi"
	"github.com/evm100/ultranode/internal/ota"
	"github.com/evm100/ultranode/internal/persist"
	"github.com/evm100/ultranode/internal/slot"
	"github.com/evm100/ultranode/internal/status"
	"github.com/evm100/ultranode/internal/task"
)

// Node is the top-level process-wide runtime (spec §3's "all stateful
// entities are process-wide singletons created during startup").
type Node struct {
	cfg config.Config
	log *zap.SugaredLogger

	store    *persist.Store
	pipeline *persist.Pipeline
	scaffold *task.Scaffold

	wsSlots    []*slot.WS
	rgbSlots   []*slot.RGB
	whiteSlots []*slot.White
	relaySlots []*slot.Relay

	fade       *motion.Engine
	dispatcher *command.Dispatcher
	status     *status.Builder

	wifiSup  *wifi.Supervisor
	sntpSup  *sntp.Supervisor
	mqttCli  *mqttnet.Client
	healthMo *health.Monitor

	heap *heapStats
}

// New builds every process-wide singleton from cfg but does not start any
// task; call Start to bring the node up.
func New(cfg config.Config, log *zap.SugaredLogger, credStore creds.Store) (*Node, error) {
	store, err := persist.Open(cfg.PersistDBPath)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	n := &Node{cfg: cfg, log: log, store: store, heap: &heapStats{}}
	n.buildSlots()
	n.pipeline = persist.NewPipeline(store, log, n.slotKeys())
	n.fade = motion.NewEngine(n.dimmables()...)
	n.status = &status.Builder{
		NodeID:    cfg.NodeID,
		WS:        n.wsSlots,
		RGB:       n.rgbSlots,
		White:     n.whiteSlots,
		Relay:     n.relaySlots,
		WSHz:      cfg.Rates.WSHz,
		RGBHz:     cfg.Rates.RGBHz,
		WhiteHz:   cfg.Rates.WhiteHz,
		StartedAt: time.Now(),
	}

	n.wifiSup = &wifi.Supervisor{
		Driver: simWifiDriver{},
		Creds:  credSourceAdapter{credStore},
		Log:    log.Named("net.wifi"),
	}
	n.sntpSup = &sntp.Supervisor{
		Syncer:         sntp.SystemSyncer{},
		WaitConnected:  n.wifiSup.WaitForIP,
		ResyncInterval: time.Hour,
		Log:            log.Named("net.sntp"),
	}

	n.dispatcher = &command.Dispatcher{
		NodeID:  cfg.NodeID,
		WS:      n.wsSlots,
		RGB:     n.rgbSlots,
		White:   n.whiteSlots,
		Relay:   n.relaySlots,
		Fade:    n.fade,
		Persist: n.pipeline,
		Status:  n.status,
		Log:     log.Named("command"),
	}

	n.mqttCli = &mqttnet.Client{
		NodeID: cfg.NodeID,
		Cfg: mqttnet.Config{
			BrokerURI:      cfg.MQTT.BrokerURI,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			DialHost:       cfg.MQTT.DialHost,
			DialPort:       cfg.MQTT.DialPort,
			CACertFile:     cfg.MQTT.CACertFile,
			SkipCNVerify:   cfg.MQTT.SkipCNVerify,
			ExpectedCN:     cfg.MQTT.ExpectedCN,
			ClientCertFile: cfg.MQTT.ClientCertFile,
			ClientKeyFile:  cfg.MQTT.ClientKeyFile,
		},
		Router: n.dispatcher,
		Dimmed: n.dimmables(),
		Log:    log.Named("net.mqtt"),
	}
	n.dispatcher.Pub = n.mqttCli
	n.dispatcher.OTA = ota.NoopChecker{Pub: n.mqttCli}

	n.healthMo = &health.Monitor{
		Heap:          n.heap,
		Recover:       recoverer{n},
		Log:           log.Named("health"),
		WifiConnected: n.wifiSup.Connected,
		MQTTReady:     n.mqttCli.Ready,
		EverSynced:    n.sntpSup.EverSynced,
		LastSync:      n.sntpSup.LastSync,
	}
	n.scaffold = task.NewScaffold(
		[]task.Subsystem{n.pipeline},
		asSubsystems(n.wsEngine(), n.rgbEngine(), n.whiteEngine(), n.relayEngine()),
		[]task.Subsystem{n.wifiSup, n.sntpSup, n.healthMo},
		[]task.Subsystem{n.mqttCli},
	)

	n.recover()
	return n, nil
}

func (n *Node) buildSlots() {
	for i, w := range n.cfg.WS {
		s := slot.NewWS(i, w.NumPixels)
		s.Configure(w.Enabled, 255)
		n.wsSlots = append(n.wsSlots, s)
	}
	for i, r := range n.cfg.RGB {
		s := slot.NewRGB(i)
		s.Configure(r.Enabled, uint16(physic.DutyMax))
		n.rgbSlots = append(n.rgbSlots, s)
	}
	for i, w := range n.cfg.White {
		s := slot.NewWhite(i)
		s.Configure(w.Enabled, n.cfg.Rates.WhiteHz)
		n.whiteSlots = append(n.whiteSlots, s)
	}
	for i, r := range n.cfg.Relay {
		s := slot.NewRelay(i)
		s.Configure(r.Enabled)
		n.relaySlots = append(n.relaySlots, s)
	}
}

func (n *Node) dimmables() []motion.Dimmable {
	var out []motion.Dimmable
	for _, s := range n.wsSlots {
		out = append(out, s)
	}
	for _, s := range n.rgbSlots {
		out = append(out, s)
	}
	for _, s := range n.whiteSlots {
		out = append(out, s)
	}
	return out
}

func (n *Node) slotKeys() []string {
	keys := make([]string, 0, len(n.wsSlots)+len(n.rgbSlots)+len(n.whiteSlots)+len(n.relaySlots))
	for i := range n.wsSlots {
		keys = append(keys, fmt.Sprintf("ws%d", i))
	}
	for i := range n.rgbSlots {
		keys = append(keys, fmt.Sprintf("rgb%d", i))
	}
	for i := range n.whiteSlots {
		keys = append(keys, fmt.Sprintf("wht%d", i))
	}
	for i := range n.relaySlots {
		keys = append(keys, fmt.Sprintf("rly%d", i))
	}
	return keys
}

// recover replays every slot's last persisted payload, if any, before the
// engines start rendering (spec §9: "treat missing keys as no prior
// state").
func (n *Node) recover() {
	replay := func(class string, idx int, key string) {
		payload, ok := n.pipeline.Recover(key)
		if !ok {
			return
		}
		n.dispatcher.Restore(class, idx, payload)
	}
	for i := range n.wsSlots {
		replay("ws", i, fmt.Sprintf("ws%d", i))
	}
	for i := range n.rgbSlots {
		replay("rgb", i, fmt.Sprintf("rgb%d", i))
	}
	for i := range n.whiteSlots {
		replay("white", i, fmt.Sprintf("wht%d", i))
	}
	for i := range n.relaySlots {
		replay("relay", i, fmt.Sprintf("rly%d", i))
	}
}

func (n *Node) wsEngine() *engine.WS {
	e := &engine.WS{RateHz: n.cfg.Rates.WSHz, Log: n.log.Named("engine.ws")}
	for i, s := range n.wsSlots {
		e.Slots[i] = s
		e.Drivers[i] = strip.NewSimDriver(s.NumPixels)
	}
	return e
}

func (n *Node) rgbEngine() *engine.RGB {
	e := &engine.RGB{RateHz: n.cfg.Rates.RGBHz, Log: n.log.Named("engine.rgb")}
	for i, s := range n.rgbSlots {
		e.Slots[i] = s
		e.Drivers[i] = pwm.NewSimDriver(3)
	}
	return e
}

func (n *Node) whiteEngine() *engine.White {
	e := &engine.White{RateHz: n.cfg.Rates.WhiteHz, Log: n.log.Named("engine.white")}
	copy(e.Slots[:], n.whiteSlots)
	e.Driver = pwm.NewSimDriver(len(n.whiteSlots))
	return e
}

func (n *Node) relayEngine() *engine.Relay {
	e := &engine.Relay{RateHz: n.cfg.Rates.WhiteHz, Log: n.log.Named("engine.relay")}
	copy(e.Slots[:], n.relaySlots)
	e.Driver = gpio.NewSimDriver(len(n.relaySlots))
	return e
}

func asSubsystems(subs ...task.Subsystem) []task.Subsystem { return subs }

// Start brings the node up in the fixed order: persistence, engines,
// supervisor, MQTT (storage already opened in New).
func (n *Node) Start(ctx context.Context) error {
	return n.scaffold.Start(ctx)
}

// Stop tears the node down in reverse order, then closes storage.
func (n *Node) Stop() error {
	err := n.scaffold.Stop()
	if cerr := n.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

type recoverer struct{ n *Node }

func (r recoverer) RecoverWifi() {
	if err := r.n.wifiSup.Restart(context.Background()); err != nil && r.n.log != nil {
		r.n.log.Warnw("wifi recovery failed", "err", err)
	}
}

func (r recoverer) RecoverMQTT() { r.n.mqttCli.Restart() }

func (r recoverer) Reboot(reason string) {
	r.n.log.Errorw("health monitor requested reboot", "reason", reason)
}

type credSourceAdapter struct{ store creds.Store }

func (a credSourceAdapter) SSID() (ssid, psk string, ok bool) {
	w, err := a.store.Load()
	if err != nil {
		return "", "", false
	}
	return w.SSID, w.PSK, true
}

type simWifiDriver struct{}

func (simWifiDriver) Connect(_ context.Context, _, _ string) error { return nil }
func (simWifiDriver) Disconnect() error                            { return nil }

// heapStats tracks the minimum-ever free heap observed across process
// lifetime using the Go runtime's own memory statistics, standing in for
// the MCU allocator's free/min-ever-free counters (spec §4.11).
type heapStats struct {
	minEver uint64
	seen    bool
}

func (h *heapStats) FreeHeap() uint64 {
	var m goruntime.MemStats
	goruntime.ReadMemStats(&m)
	return m.Sys - m.HeapInuse
}

func (h *heapStats) MinFreeHeap() uint64 {
	free := h.FreeHeap()
	if !h.seen || free < h.minEver {
		h.minEver = free
		h.seen = true
	}
	return h.minEver
}
