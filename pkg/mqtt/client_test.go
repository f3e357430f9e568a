package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewClientValidates(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ClientConfig
		wantErr bool
	}{
		{"nil config", nil, true},
		{"no broker", &ClientConfig{ClientID: "n1"}, true},
		{"no host", &ClientConfig{BrokerURL: "tcp://", ClientID: "n1"}, true},
		{"no client id", &ClientConfig{BrokerURL: "tcp://localhost:1883"}, true},
		{"ok", &ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "n1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClientAppliesDefaults(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "n1"}
	if _, err := NewClient(cfg); err != nil {
		t.Fatalf("NewClient() err=%v", err)
	}
	if cfg.KeepAlive != 60 || cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("defaults not applied: keepAlive=%d connectTimeout=%v", cfg.KeepAlive, cfg.ConnectTimeout)
	}
}

func TestOperationsBeforeStart(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "n1"})
	if err != nil {
		t.Fatalf("NewClient() err=%v", err)
	}

	ctx := context.Background()
	if err := c.Publish(ctx, "t", 0, false, nil); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Publish before Start: err=%v", err)
	}
	if err := c.AwaitConnection(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AwaitConnection before Start: err=%v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected before Start")
	}
	c.Disconnect(ctx)
}

func TestWillMessage(t *testing.T) {
	c := &pahoClient{cfg: &ClientConfig{}}
	if c.willMessage() != nil {
		t.Fatal("expected no will without topic")
	}

	c.cfg.WillTopic = "joynode/v1/online/n1"
	c.cfg.WillPayload = []byte("offline")
	c.cfg.WillQoS = 1
	c.cfg.WillRetain = true
	w := c.willMessage()
	if w == nil || w.Topic != c.cfg.WillTopic || !w.Retain || w.QoS != 1 {
		t.Fatalf("unexpected will: %+v", w)
	}
}
