package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*JoystickOptions)(nil)

// JoystickOptions holds the ADC thresholds used to classify the stick direction.
type JoystickOptions struct {
	CenterMin     uint16 `json:"center-min" mapstructure:"center-min"`
	CenterMax     uint16 `json:"center-max" mapstructure:"center-max"`
	ThresholdLow  uint16 `json:"threshold-low" mapstructure:"threshold-low"`
	ThresholdHigh uint16 `json:"threshold-high" mapstructure:"threshold-high"`
}

func NewJoystickOptions() *JoystickOptions {
	return &JoystickOptions{
		CenterMin:     2000,
		CenterMax:     2100,
		ThresholdLow:  1000,
		ThresholdHigh: 3000,
	}
}

// Validate requires low < center-min <= center-max < high.
func (o *JoystickOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.CenterMin > o.CenterMax {
		errs = append(errs, fmt.Errorf("joystick center-min %d is above center-max %d", o.CenterMin, o.CenterMax))
	}
	if o.ThresholdLow >= o.CenterMin {
		errs = append(errs, fmt.Errorf("joystick threshold-low %d must be below center-min %d", o.ThresholdLow, o.CenterMin))
	}
	if o.ThresholdHigh <= o.CenterMax {
		errs = append(errs, fmt.Errorf("joystick threshold-high %d must be above center-max %d", o.ThresholdHigh, o.CenterMax))
	}

	return errs
}

func (o *JoystickOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Uint16Var(&o.CenterMin, "joystick.center-min", o.CenterMin, "Lower bound of the center band on both axes.")
	fs.Uint16Var(&o.CenterMax, "joystick.center-max", o.CenterMax, "Upper bound of the center band on both axes.")
	fs.Uint16Var(&o.ThresholdLow, "joystick.threshold-low", o.ThresholdLow, "Readings below this are an axis extreme.")
	fs.Uint16Var(&o.ThresholdHigh, "joystick.threshold-high", o.ThresholdHigh, "Readings above this are an axis extreme.")
}
