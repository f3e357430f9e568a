package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*TelemetryOptions)(nil)

// TelemetryOptions configures the outbound upload to the telemetry endpoint.
type TelemetryOptions struct {
	Host   string `json:"host" mapstructure:"host"`
	Port   int    `json:"port" mapstructure:"port"`
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// DNSTimeout bounds a single hostname lookup.
	DNSTimeout time.Duration `json:"dns-timeout" mapstructure:"dns-timeout"`

	// DialTimeout bounds connection setup.
	DialTimeout time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`

	// RequestTimeout bounds a whole upload from connect to close.
	// Zero leaves the session open until the peer closes or errors.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`

	// MaxHandles caps the connection handles the transport will allocate.
	MaxHandles int `json:"max-handles" mapstructure:"max-handles"`
}

// NewTelemetryOptions returns ThingSpeak defaults.
func NewTelemetryOptions() *TelemetryOptions {
	return &TelemetryOptions{
		Host:           "api.thingspeak.com",
		Port:           80,
		DNSTimeout:     5 * time.Second,
		DialTimeout:    5 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxHandles:     4,
	}
}

func (o *TelemetryOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Host == "" {
		errs = append(errs, errors.New("--telemetry.host is required"))
	}
	if o.Port < 1 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("--telemetry.port %d out of range 1-65535", o.Port))
	}
	if o.APIKey == "" {
		errs = append(errs, errors.New("--telemetry.api-key is required"))
	}
	if o.DNSTimeout <= 0 || o.DialTimeout <= 0 {
		errs = append(errs, errors.New("--telemetry.dns-timeout and --telemetry.dial-timeout must be > 0"))
	}
	if o.RequestTimeout < 0 {
		errs = append(errs, errors.New("--telemetry.request-timeout must not be negative"))
	}
	if o.MaxHandles < 1 {
		errs = append(errs, errors.New("--telemetry.max-handles must be >= 1"))
	}

	return errs
}

func (o *TelemetryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Host, "telemetry.host", o.Host, "Hostname of the telemetry endpoint.")
	fs.IntVar(&o.Port, "telemetry.port", o.Port, "TCP port of the telemetry endpoint.")
	fs.StringVar(&o.APIKey, "telemetry.api-key", o.APIKey, "Write API key sent as the api_key query parameter.")
	fs.DurationVar(&o.DNSTimeout, "telemetry.dns-timeout", o.DNSTimeout, "Timeout for one hostname lookup.")
	fs.DurationVar(&o.DialTimeout, "telemetry.dial-timeout", o.DialTimeout, "Timeout for establishing the upload connection.")
	fs.DurationVar(&o.RequestTimeout, "telemetry.request-timeout", o.RequestTimeout, "Deadline for a whole upload, from connect to close. 0 disables it.")
	fs.IntVar(&o.MaxHandles, "telemetry.max-handles", o.MaxHandles, "Maximum connection handles the transport may allocate.")
}
