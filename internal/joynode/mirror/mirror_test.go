package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/pkg/mqtt/topic"
)

type message struct {
	topic   string
	qos     int
	retain  bool
	payload string
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	messages  []message
	block     chan struct{}
	err       error
	published chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, published: make(chan struct{}, 16)}
}

func (c *fakeClient) Start(context.Context) error           { return nil }
func (c *fakeClient) Disconnect(context.Context)            {}
func (c *fakeClient) AwaitConnection(context.Context) error { return nil }

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Publish(_ context.Context, t string, qos int, retain bool, payload []byte) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.messages = append(c.messages, message{t, qos, retain, string(payload)})
	c.mu.Unlock()
	c.published <- struct{}{}
	return c.err
}

func (c *fakeClient) all() []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message(nil), c.messages...)
}

func waitPublished(t *testing.T, c *fakeClient) {
	t.Helper()
	select {
	case <-c.published:
	case <-time.After(5 * time.Second):
		t.Fatal("no publish")
	}
}

func startMirror(t *testing.T, c *fakeClient) (*Mirror, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	m := NewWithClient(c, topic.NewTopicBuilder("joynode/v1"), "node-1", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Start(ctx)
	}()

	// online announcement
	waitPublished(t, c)
	return m, cancel, done
}

func TestEncode(t *testing.T) {
	snap := &core.Snapshot{
		Button1:   true,
		JoystickX: 500,
		JoystickY: 500,
		Direction: core.Southwest,
		TakenAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out, err := Encode(snap, "node-1")
	if err != nil {
		t.Fatalf("Encode() err=%v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("payload is not JSON: %v\n%s", err, out)
	}
	if got["deviceId"] != "node-1" || got["button1"] != true || got["direction"] != "Southwest" {
		t.Errorf("payload %v", got)
	}
	if got["directionCode"] != float64(6) || got["joystickX"] != float64(500) {
		t.Errorf("numbers %v", got)
	}
	if got["takenAt"] != "2025-01-02T03:04:05Z" {
		t.Errorf("takenAt %v", got["takenAt"])
	}
}

func TestLifecycle(t *testing.T) {
	c := newFakeClient()
	m, cancel, done := startMirror(t, c)

	m.Publish(&core.Snapshot{JoystickX: 1})
	waitPublished(t, c)

	cancel()
	<-done

	msgs := c.all()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages: %+v", len(msgs), msgs)
	}
	if msgs[0].topic != "joynode/v1/online/node-1" || msgs[0].payload != "online" || !msgs[0].retain {
		t.Errorf("first message %+v", msgs[0])
	}
	if msgs[1].topic != "joynode/v1/telemetry/node-1" || msgs[1].retain {
		t.Errorf("snapshot message %+v", msgs[1])
	}
	if msgs[2].payload != "offline" || !msgs[2].retain {
		t.Errorf("last message %+v", msgs[2])
	}
}

func TestPublishSkipsWhileBusy(t *testing.T) {
	c := newFakeClient()
	m, cancel, done := startMirror(t, c)
	defer func() {
		cancel()
		<-done
	}()

	c.block = make(chan struct{})
	m.Publish(&core.Snapshot{JoystickX: 1})
	// Wait until the first publish holds the slot.
	for !m.busy.Load() {
		time.Sleep(time.Millisecond)
	}
	m.Publish(&core.Snapshot{JoystickX: 2})
	close(c.block)
	waitPublished(t, c)

	// Let the goroutine release the slot.
	for m.busy.Load() {
		time.Sleep(time.Millisecond)
	}
	c.block = nil

	msgs := c.all()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want online plus one snapshot", len(msgs))
	}
}

func TestPublishBeforeStartOrDisconnected(t *testing.T) {
	c := newFakeClient()
	m := NewWithClient(c, topic.NewTopicBuilder("r"), "n", time.Second)

	m.Publish(&core.Snapshot{})
	c.connected = false
	m.ctx.Store(new(context.Context))
	m.Publish(&core.Snapshot{})

	if len(c.all()) != 0 {
		t.Fatal("published without a started, connected client")
	}
}

func TestPublishFailureReleasesSlot(t *testing.T) {
	c := newFakeClient()
	m, cancel, done := startMirror(t, c)
	defer func() {
		cancel()
		<-done
	}()

	c.err = errors.New("broker unavailable")
	m.Publish(&core.Snapshot{})
	waitPublished(t, c)
	for m.busy.Load() {
		time.Sleep(time.Millisecond)
	}
}
