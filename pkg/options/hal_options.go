package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HALOptions)(nil)

const (
	HALDriverSim   = "sim"
	HALDriverSysfs = "sysfs"
)

// HALOptions selects the sensor driver and its pin and channel assignments.
type HALOptions struct {
	Driver string `json:"driver" mapstructure:"driver"`

	// SysfsRoot is prefixed to /sys paths; tests point it at a temp dir.
	SysfsRoot string `json:"sysfs-root" mapstructure:"sysfs-root"`

	Button1Pin int  `json:"button1-pin" mapstructure:"button1-pin"`
	Button2Pin int  `json:"button2-pin" mapstructure:"button2-pin"`
	ActiveLow  bool `json:"active-low" mapstructure:"active-low"`

	// ADC channel carrying each joystick axis.
	ADCDevice   int `json:"adc-device" mapstructure:"adc-device"`
	ADCXChannel int `json:"adc-x-channel" mapstructure:"adc-x-channel"`
	ADCYChannel int `json:"adc-y-channel" mapstructure:"adc-y-channel"`
}

func NewHALOptions() *HALOptions {
	return &HALOptions{
		Driver:      HALDriverSim,
		SysfsRoot:   "/",
		Button1Pin:  5,
		Button2Pin:  6,
		ActiveLow:   true,
		ADCDevice:   0,
		ADCXChannel: 0,
		ADCYChannel: 1,
	}
}

func (o *HALOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Driver {
	case HALDriverSim, HALDriverSysfs:
	default:
		errs = append(errs, fmt.Errorf("--hal.driver must be %q or %q, got %q", HALDriverSim, HALDriverSysfs, o.Driver))
	}
	if o.Button1Pin < 0 || o.Button2Pin < 0 {
		errs = append(errs, fmt.Errorf("button pins must not be negative"))
	}
	if o.Button1Pin == o.Button2Pin {
		errs = append(errs, fmt.Errorf("button1-pin and button2-pin are both %d", o.Button1Pin))
	}
	if o.ADCXChannel == o.ADCYChannel {
		errs = append(errs, fmt.Errorf("adc-x-channel and adc-y-channel are both %d", o.ADCXChannel))
	}

	return errs
}

func (o *HALOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "hal.driver", o.Driver, "Sensor driver: 'sim' or 'sysfs'.")
	fs.StringVar(&o.SysfsRoot, "hal.sysfs-root", o.SysfsRoot, "Root directory for sysfs paths.")
	fs.IntVar(&o.Button1Pin, "hal.button1-pin", o.Button1Pin, "GPIO line of button 1.")
	fs.IntVar(&o.Button2Pin, "hal.button2-pin", o.Button2Pin, "GPIO line of button 2.")
	fs.BoolVar(&o.ActiveLow, "hal.active-low", o.ActiveLow, "Buttons pull the line low when pressed.")
	fs.IntVar(&o.ADCDevice, "hal.adc-device", o.ADCDevice, "IIO device index of the ADC.")
	fs.IntVar(&o.ADCXChannel, "hal.adc-x-channel", o.ADCXChannel, "ADC channel wired to the joystick X axis.")
	fs.IntVar(&o.ADCYChannel, "hal.adc-y-channel", o.ADCYChannel, "ADC channel wired to the joystick Y axis.")
}
