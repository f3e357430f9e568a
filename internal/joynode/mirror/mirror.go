// Package mirror republishes every snapshot to an MQTT broker so that
// several nodes can be watched from one subscriber.
package mirror

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/mqtt"
	"github.com/autopeer-io/joynode/pkg/mqtt/topic"
	"github.com/autopeer-io/joynode/pkg/options"
)

const qosAtLeastOnce = 1

// Mirror publishes snapshots with at most one publish in flight. A snapshot
// offered while the previous publish is pending is dropped.
type Mirror struct {
	client   mqtt.Client
	topics   *topic.TopicBuilder
	deviceID string
	timeout  time.Duration
	logger   log.Logger

	ctx  atomic.Pointer[context.Context]
	busy atomic.Bool
}

// New builds the MQTT client from opts. The broker marks the node offline
// through the will message when the connection drops.
func New(opts *options.MqttOptions, deviceID string) (*Mirror, error) {
	topics := topic.NewTopicBuilder(opts.TopicRoot)

	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = "joynode-" + deviceID
	}
	cfg.WillTopic = topics.Online(deviceID)
	cfg.WillPayload = []byte(topic.PayloadOffline)
	cfg.WillQoS = qosAtLeastOnce
	cfg.WillRetain = true

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, topics, deviceID, opts.PublishTimeout), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client mqtt.Client, topics *topic.TopicBuilder, deviceID string, timeout time.Duration) *Mirror {
	return &Mirror{
		client:   client,
		topics:   topics,
		deviceID: deviceID,
		timeout:  timeout,
		logger:   log.WithName("mirror"),
	}
}

// Start connects and announces the node until ctx is done, then marks it
// offline and disconnects.
func (m *Mirror) Start(ctx context.Context) error {
	m.ctx.Store(&ctx)

	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	go func() {
		if err := m.client.AwaitConnection(ctx); err != nil {
			return
		}
		m.announce(ctx, topic.PayloadOnline)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if m.client.IsConnected() {
		m.announce(shutdownCtx, topic.PayloadOffline)
	}
	m.client.Disconnect(shutdownCtx)
	return nil
}

func (m *Mirror) announce(ctx context.Context, state string) {
	err := m.client.Publish(ctx, m.topics.Online(m.deviceID), qosAtLeastOnce, true, []byte(state))
	if err != nil {
		m.logger.Warn("Failed to publish liveness", "state", state, "err", err.Error())
	}
}

// Publish sends snap in the background. It never blocks.
func (m *Mirror) Publish(snap *core.Snapshot) {
	parent := m.ctx.Load()
	if parent == nil || !m.client.IsConnected() {
		metrics.MirrorPublishes.WithLabelValues("skipped").Inc()
		return
	}
	if !m.busy.CompareAndSwap(false, true) {
		metrics.MirrorPublishes.WithLabelValues("skipped").Inc()
		return
	}

	payload, err := Encode(snap, m.deviceID)
	if err != nil {
		m.busy.Store(false)
		m.logger.Error(err, "Failed to encode snapshot")
		return
	}

	go func() {
		defer m.busy.Store(false)

		ctx, cancel := context.WithTimeout(*parent, m.timeout)
		defer cancel()

		if err := m.client.Publish(ctx, m.topics.Telemetry(m.deviceID), 0, false, payload); err != nil {
			metrics.MirrorPublishes.WithLabelValues("failure").Inc()
			m.logger.Warn("Snapshot publish failed", "err", err.Error())
			return
		}
		metrics.MirrorPublishes.WithLabelValues("success").Inc()
	}()
}

// Encode renders snap as a JSON object through structpb.
func Encode(snap *core.Snapshot, deviceID string) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"deviceId":       deviceID,
		"button1":        snap.Button1,
		"button2":        snap.Button2,
		"joystickX":      int(snap.JoystickX),
		"joystickY":      int(snap.JoystickY),
		"direction":      snap.Direction.Label(),
		"directionCode":  snap.Direction.Code(),
		"button1Message": snap.Button1Message,
		"button2Message": snap.Button2Message,
		"takenAt":        snap.TakenAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}
