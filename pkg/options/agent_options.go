package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*AgentOptions)(nil)

// AgentOptions configures the orchestration cadence and node identity.
type AgentOptions struct {
	DeviceID     string        `json:"device-id" mapstructure:"device-id"`
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`
}

func NewAgentOptions() *AgentOptions {
	return &AgentOptions{
		TickInterval: time.Second,
	}
}

func (o *AgentOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.TickInterval <= 0 {
		return []error{errors.New("--agent.tick-interval must be > 0")}
	}
	return nil
}

func (o *AgentOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.DeviceID, "agent.device-id", o.DeviceID, "Node identifier. Defaults to the hostname.")
	fs.DurationVar(&o.TickInterval, "agent.tick-interval", o.TickInterval, "Interval between orchestration ticks.")
}
