package topic

import "testing"

func TestTopicBuilder(t *testing.T) {
	b := NewTopicBuilder("joynode/v1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"telemetry", b.Telemetry("node-1"), "joynode/v1/telemetry/node-1"},
		{"telemetry wildcard", b.TelemetryWildcard(), "joynode/v1/telemetry/+"},
		{"online", b.Online("node-1"), "joynode/v1/online/node-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
