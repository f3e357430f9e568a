//go:build linux

package hal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/options"
)

// Sysfs reads the buttons from the legacy GPIO sysfs interface and the
// stick from an IIO ADC. Lines must already be exported as inputs.
type Sysfs struct {
	button1   string
	button2   string
	adcX      string
	adcY      string
	activeLow bool
}

func newSysfs(opts *options.HALOptions) (core.Sensors, error) {
	root := opts.SysfsRoot
	gpio := func(pin int) string {
		return filepath.Join(root, "sys/class/gpio", fmt.Sprintf("gpio%d", pin), "value")
	}
	adc := func(ch int) string {
		return filepath.Join(root, "sys/bus/iio/devices", fmt.Sprintf("iio:device%d", opts.ADCDevice), fmt.Sprintf("in_voltage%d_raw", ch))
	}

	s := &Sysfs{
		button1:   gpio(opts.Button1Pin),
		button2:   gpio(opts.Button2Pin),
		adcX:      adc(opts.ADCXChannel),
		adcY:      adc(opts.ADCYChannel),
		activeLow: opts.ActiveLow,
	}

	for _, p := range []string{s.button1, s.button2, s.adcX, s.adcY} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("hal: %w", err)
		}
	}

	log.Info("Using sysfs sensors", "button1", s.button1, "button2", s.button2, "adcX", s.adcX, "adcY", s.adcY)
	return s, nil
}

func (s *Sysfs) Read(_ context.Context) (core.Reading, error) {
	var r core.Reading
	var err error

	if r.Button1, err = s.readButton(s.button1); err != nil {
		return r, err
	}
	if r.Button2, err = s.readButton(s.button2); err != nil {
		return r, err
	}
	if r.JoystickX, err = readADC(s.adcX); err != nil {
		return r, err
	}
	if r.JoystickY, err = readADC(s.adcY); err != nil {
		return r, err
	}
	return r, nil
}

func (s *Sysfs) readButton(path string) (bool, error) {
	v, err := readInt(path)
	if err != nil {
		return false, err
	}
	high := v != 0
	if s.activeLow {
		return !high, nil
	}
	return high, nil
}

func readADC(path string) (uint16, error) {
	v, err := readInt(path)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 0xFFFF {
		return 0, fmt.Errorf("hal: %s: value %d out of range", path, v)
	}
	return uint16(v), nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("hal: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("hal: %s: %w", path, err)
	}
	return v, nil
}
