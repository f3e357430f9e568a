package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/autopeer-io/joynode/internal/joynode/core"
)

func runDirections(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newDirectionsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDirectionsTable(t *testing.T) {
	out, err := runDirections(t)
	if err != nil {
		t.Fatalf("Execute() err=%v", err)
	}
	for _, d := range core.Directions {
		if !strings.Contains(out, d.Label()) {
			t.Errorf("table missing %s:\n%s", d.Label(), out)
		}
	}
	if !strings.Contains(out, "y < 1000 and x > 3000") {
		t.Errorf("table missing northwest rule:\n%s", out)
	}
}

func TestDirectionsClassify(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"500", "500"}, "Southwest (6)"},
		{[]string{"2050", "2050"}, "Center (0)"},
		{[]string{"--joystick.threshold-high", "2500", "2600", "2048"}, "North (1)"},
	}
	for _, tt := range tests {
		out, err := runDirections(t, tt.args...)
		if err != nil {
			t.Fatalf("%v: err=%v", tt.args, err)
		}
		if strings.TrimSpace(out) != tt.want {
			t.Errorf("%v: got %q, want %q", tt.args, out, tt.want)
		}
	}
}

func TestDirectionsRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{{"1"}, {"x", "1"}, {"70000", "1"}, {"1", "2", "3"}} {
		if _, err := runDirections(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
