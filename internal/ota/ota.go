// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ota declares the OTA collaborator interface spec §6 specifies:
// "The core calls ota.check(force:bool). OTA is expected to publish its
// progress events on [ul/<node>/evt/ota] and to reboot the device on
// success after fencing on its publish ack." OTA fetch/verify/apply is
// explicitly out of scope (spec §1, §6); only the interface lives here.
package ota

import "context"

// Stage is one step of OTA progress, published on ul/<node>/evt/ota.
type Stage string

const (
	StageChecking    Stage = "checking"
	StageUpToDate    Stage = "up_to_date"
	StageDownloading Stage = "downloading"
	StageVerifying   Stage = "verifying"
	StageApplying    Stage = "applying"
	StageFailed      Stage = "failed"
)

// Event is one progress notification an OTA collaborator emits.
type Event struct {
	Status Stage
	Detail string
}

// Checker is the external collaborator the command dispatcher calls on
// `cmd/ota/check` (spec §4.5). A real implementation fetches, verifies,
// and applies a firmware image, then reboots after fencing on its publish
// ack (spec §4.10's 2s publish-ack fence); this repo ships only a no-op
// stub satisfying the interface, since OTA internals are out of scope.
type Checker interface {
	Check(ctx context.Context, force bool) error
}

// Publisher is how a Checker reports progress; the command package wires
// this to the MQTT client's publish on ul/<node>/evt/ota.
type Publisher interface {
	PublishOTAEvent(Event) error
}

// NoopChecker always reports up-to-date without touching any storage or
// network; it is the default collaborator wired when no real OTA backend
// is configured.
type NoopChecker struct {
	Pub Publisher
}

func (n NoopChecker) Check(_ context.Context, _ bool) error {
	if n.Pub != nil {
		return n.Pub.PublishOTAEvent(Event{Status: StageUpToDate})
	}
	return nil
}
