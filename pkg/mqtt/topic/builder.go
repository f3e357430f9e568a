package topic

import (
	"fmt"
)

// Topic segments published by a node. Consumers subscribe with these, so
// renaming one breaks existing dashboards.
const (
	// SuffixTelemetry carries one snapshot per tick (Node -> Broker).
	// Structure: {root}/telemetry/{deviceID}
	SuffixTelemetry = "telemetry"

	// SuffixOnline carries the retained liveness flag of a node.
	// Structure: {root}/online/{deviceID}
	SuffixOnline = "online"
)

// Payloads of the liveness topic.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "joynode/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: root}
}

// Telemetry returns the topic a node publishes its snapshots on.
func (b *TopicBuilder) Telemetry(deviceID string) string {
	return b.build(SuffixTelemetry, deviceID)
}

// TelemetryWildcard returns the filter matching every node's snapshots.
// Result: {root}/telemetry/+
func (b *TopicBuilder) TelemetryWildcard() string {
	return b.build(SuffixTelemetry, Wildcard)
}

// Online returns the liveness topic of a node.
func (b *TopicBuilder) Online(deviceID string) string {
	return b.build(SuffixOnline, deviceID)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
