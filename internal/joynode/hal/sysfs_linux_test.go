//go:build linux

package hal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/autopeer-io/joynode/pkg/options"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fakeSysfs(t *testing.T) (*options.HALOptions, string) {
	t.Helper()
	root := t.TempDir()
	opts := options.NewHALOptions()
	opts.Driver = options.HALDriverSysfs
	opts.SysfsRoot = root

	writeFile(t, filepath.Join(root, "sys/class/gpio/gpio5/value"), "0\n")
	writeFile(t, filepath.Join(root, "sys/class/gpio/gpio6/value"), "1\n")
	writeFile(t, filepath.Join(root, "sys/bus/iio/devices/iio:device0/in_voltage0_raw"), "500\n")
	writeFile(t, filepath.Join(root, "sys/bus/iio/devices/iio:device0/in_voltage1_raw"), "3500\n")
	return opts, root
}

func TestSysfsRead(t *testing.T) {
	opts, _ := fakeSysfs(t)

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	r, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() err=%v", err)
	}

	// Active low: gpio5 at 0 is pressed, gpio6 at 1 is released.
	if !r.Button1 || r.Button2 {
		t.Errorf("buttons = %v %v", r.Button1, r.Button2)
	}
	if r.JoystickX != 500 || r.JoystickY != 3500 {
		t.Errorf("joystick = %d %d", r.JoystickX, r.JoystickY)
	}
}

func TestSysfsActiveHigh(t *testing.T) {
	opts, _ := fakeSysfs(t)
	opts.ActiveLow = false

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	r, _ := s.Read(context.Background())
	if r.Button1 || !r.Button2 {
		t.Errorf("buttons = %v %v", r.Button1, r.Button2)
	}
}

func TestSysfsMissingLine(t *testing.T) {
	opts, root := fakeSysfs(t)
	_ = os.Remove(filepath.Join(root, "sys/class/gpio/gpio6/value"))

	if _, err := New(opts); err == nil {
		t.Fatal("expected error for a missing gpio line")
	}
}

func TestSysfsBadValue(t *testing.T) {
	opts, root := fakeSysfs(t)

	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	writeFile(t, filepath.Join(root, "sys/bus/iio/devices/iio:device0/in_voltage0_raw"), "garbage")
	if _, err := s.Read(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
