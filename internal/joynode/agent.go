// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package joynode wires the sensor model, the page responder and the
// telemetry uplink around one event loop.
package joynode

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/loop"
	"github.com/autopeer-io/joynode/internal/joynode/mirror"
	"github.com/autopeer-io/joynode/internal/joynode/responder"
	"github.com/autopeer-io/joynode/internal/joynode/uplink"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
	"github.com/autopeer-io/joynode/pkg/log"
)

// Server is a component that runs until its context is done.
type Server interface {
	Start(ctx context.Context) error
}

// Agent owns the event loop. Its tick and every loop callback run on the
// goroutine executing Run.
type Agent struct {
	deviceID string
	interval time.Duration

	loop       *loop.Loop
	sensors    core.Sensors
	thresholds core.Thresholds
	buttons    *core.ButtonMonitor
	store      *core.SnapshotStore
	uplink     *uplink.Client
	responder  *responder.Responder
	mirror     *mirror.Mirror

	servers []Server
}

// Run binds the responder, starts the servers and ticks until ctx is done.
// A bind failure is returned before anything else starts.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.responder.Listen(); err != nil {
		return err
	}

	log.Info("Starting joynode agent", "deviceID", a.deviceID, "interval", a.interval, "responder", a.responder.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range a.servers {
		srv := s
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}
	g.Go(func() error {
		return a.runLoop(ctx)
	})

	return g.Wait()
}

func (a *Agent) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// Perform an initial run immediately on startup.
	a.tick(ctx)

	for {
		select {
		case <-ticker.C:
			a.tick(ctx)
		case <-a.loop.Ready():
			// Answer pages between ticks.
			a.loop.Poll()
		case <-ctx.Done():
			log.Info("Shutting down joynode agent.")
			return nil
		}
	}
}

// tick runs one orchestration cycle. Nothing in it blocks on the network.
func (a *Agent) tick(ctx context.Context) {
	metrics.Ticks.Inc()
	a.loop.Poll()

	r, err := a.sensors.Read(ctx)
	if err != nil {
		log.Error(err, "Failed to read sensors, keeping previous snapshot")
		a.uplink.TriggerUpload(ctx, a.store.Load())
		return
	}

	a.buttons.Update(r.Button1, r.Button2)
	snap := &core.Snapshot{
		Button1:        r.Button1,
		Button2:        r.Button2,
		JoystickX:      r.JoystickX,
		JoystickY:      r.JoystickY,
		Direction:      a.thresholds.Classify(r.JoystickX, r.JoystickY),
		Button1Message: a.buttons.Message(1),
		Button2Message: a.buttons.Message(2),
		TakenAt:        time.Now(),
	}
	a.store.Store(snap)

	a.uplink.TriggerUpload(ctx, snap)
	if a.mirror != nil {
		a.mirror.Publish(snap)
	}
}

// UpdateThresholds replaces the classifier bounds from the next tick on.
// It is safe to call from any goroutine.
func (a *Agent) UpdateThresholds(t core.Thresholds) {
	a.loop.Post(func() {
		a.thresholds = t
		log.Info("Joystick thresholds updated", "centerMin", t.CenterMin, "centerMax", t.CenterMax, "low", t.Low, "high", t.High)
	})
}

// Ready reports whether the page responder is listening.
func (a *Agent) Ready() bool {
	return a.responder.Ready()
}

// Snapshot returns the latest snapshot.
func (a *Agent) Snapshot() *core.Snapshot {
	return a.store.Load()
}

// UplinkStatus returns the telemetry client status.
func (a *Agent) UplinkStatus() uplink.Status {
	return a.uplink.Status()
}
