// Package hal provides the sensor drivers behind core.Sensors.
package hal

import (
	"fmt"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/pkg/options"
)

// New returns the driver selected by opts.Driver.
func New(opts *options.HALOptions) (core.Sensors, error) {
	switch opts.Driver {
	case options.HALDriverSim:
		return NewSim(), nil
	case options.HALDriverSysfs:
		return newSysfs(opts)
	default:
		return nil, fmt.Errorf("hal: unknown driver %q", opts.Driver)
	}
}
