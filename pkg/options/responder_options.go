package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ResponderOptions)(nil)

// ResponderOptions configures the inbound page listener.
type ResponderOptions struct {
	Addr string `json:"addr" mapstructure:"addr"`

	// ReadTimeout bounds the wait for the first request bytes on a connection.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
}

func NewResponderOptions() *ResponderOptions {
	return &ResponderOptions{
		Addr:        ":80",
		ReadTimeout: 30 * time.Second,
	}
}

func (o *ResponderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

func (o *ResponderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "responder.addr", o.Addr, "Bind address of the inbound status page.")
	fs.DurationVar(&o.ReadTimeout, "responder.read-timeout", o.ReadTimeout, "How long to wait for request bytes before dropping a connection.")
}
