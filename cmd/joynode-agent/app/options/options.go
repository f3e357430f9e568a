package options

import (
	"fmt"
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/joynode/internal/joynode"
	"github.com/autopeer-io/joynode/pkg/app"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/options"
)

type AgentOptions struct {
	AgentOptions     *options.AgentOptions     `json:"agent" mapstructure:"agent"`
	TelemetryOptions *options.TelemetryOptions `json:"telemetry" mapstructure:"telemetry"`
	ResponderOptions *options.ResponderOptions `json:"responder" mapstructure:"responder"`
	JoystickOptions  *options.JoystickOptions  `json:"joystick" mapstructure:"joystick"`
	HALOptions       *options.HALOptions       `json:"hal" mapstructure:"hal"`
	WifiOptions      *options.WifiOptions      `json:"wifi" mapstructure:"wifi"`
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		AgentOptions:     options.NewAgentOptions(),
		TelemetryOptions: options.NewTelemetryOptions(),
		ResponderOptions: options.NewResponderOptions(),
		JoystickOptions:  options.NewJoystickOptions(),
		HALOptions:       options.NewHALOptions(),
		WifiOptions:      options.NewWifiOptions(),
		MqttOptions:      options.NewMqttOptions(),
		HttpOptions:      options.NewHttpOptions(),
		Log:              log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.AgentOptions.AddFlags(fss.FlagSet("agent"))
	o.TelemetryOptions.AddFlags(fss.FlagSet("telemetry"))
	o.ResponderOptions.AddFlags(fss.FlagSet("responder"))
	o.JoystickOptions.AddFlags(fss.FlagSet("joystick"))
	o.HALOptions.AddFlags(fss.FlagSet("hal"))
	o.WifiOptions.AddFlags(fss.FlagSet("wifi"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

// Complete defaults the device id to the hostname.
func (o *AgentOptions) Complete() error {
	if o.AgentOptions.DeviceID == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("--agent.device-id is empty and the hostname is unavailable: %w", err)
		}
		o.AgentOptions.DeviceID = host
	}
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.AgentOptions.Validate()...)
	errs = append(errs, o.TelemetryOptions.Validate()...)
	errs = append(errs, o.ResponderOptions.Validate()...)
	errs = append(errs, o.JoystickOptions.Validate()...)
	errs = append(errs, o.HALOptions.Validate()...)
	errs = append(errs, o.WifiOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*joynode.Config, error) {
	return &joynode.Config{
		AgentOptions:     o.AgentOptions,
		TelemetryOptions: o.TelemetryOptions,
		ResponderOptions: o.ResponderOptions,
		JoystickOptions:  o.JoystickOptions,
		HALOptions:       o.HALOptions,
		MqttOptions:      o.MqttOptions,
		HttpOptions:      o.HttpOptions,
	}, nil
}
