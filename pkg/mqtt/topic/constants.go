package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	// Example: "joynode/v1/telemetry/+" matches "joynode/v1/telemetry/node-1".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#". It must be the last
	// character in the topic filter.
	MultiWildcard = "#"
)
