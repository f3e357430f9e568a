//go:build !linux

package hal

import (
	"errors"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/pkg/options"
)

func newSysfs(_ *options.HALOptions) (core.Sensors, error) {
	return nil, errors.New("hal: the sysfs driver is only available on linux")
}
