package page

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/autopeer-io/joynode/internal/joynode/core"
)

func TestRender(t *testing.T) {
	snap := &core.Snapshot{
		JoystickX:      500,
		JoystickY:      500,
		Direction:      core.Southwest,
		Button1Message: "Button 1 was pressed!",
		Button2Message: "No event on button 2",
	}

	body, err := Render(snap)
	if err != nil {
		t.Fatalf("Render() err=%v", err)
	}
	html := string(body)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Button Control</title>",
		"Button 1: Button 1 was pressed!",
		"Button 2: No event on button 2",
		"<p>X: 500</p>",
		"<p>Y: 500</p>",
		"<p>Button 1 state: released</p>",
		"Direction: Southwest",
		"1000",
		"/update",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q:\n%s", want, html)
		}
	}
}

func TestRenderEscapesMessages(t *testing.T) {
	body, err := Render(&core.Snapshot{Button1Message: "<script>x</script>"})
	if err != nil {
		t.Fatalf("Render() err=%v", err)
	}
	if strings.Contains(string(body), "<script>x</script>") {
		t.Fatal("message was not escaped")
	}
}

var paragraph = regexp.MustCompile(`<p>([^<:]+): ([^<]*)</p>`)

// fields extracts every "<p>Name: value</p>" line of a rendered page.
func fields(t *testing.T, body []byte) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, m := range paragraph.FindAllStringSubmatch(string(body), -1) {
		out[m[1]] = html.UnescapeString(m[2])
	}
	return out
}

func TestRenderRoundTrip(t *testing.T) {
	var snaps []*core.Snapshot
	for i, d := range core.Directions {
		snaps = append(snaps, &core.Snapshot{
			Button1:        i%2 == 0,
			Button2:        i%3 == 0,
			JoystickX:      uint16(i * 500),
			JoystickY:      uint16(4095 - i*500),
			Direction:      d,
			Button1Message: "Button 1 was pressed!",
			Button2Message: "No event on button 2",
		})
	}
	snaps = append(snaps,
		&core.Snapshot{JoystickX: 0, JoystickY: 0, Direction: core.Southwest},
		&core.Snapshot{JoystickX: 4095, JoystickY: 4095, Direction: core.Northeast, Button1: true, Button2: true},
		&core.Snapshot{JoystickX: 5000, JoystickY: 50, Button1Message: `"quoted" & <tagged>`},
	)

	for _, snap := range snaps {
		body, err := Render(snap)
		if err != nil {
			t.Fatalf("Render(%+v) err=%v", snap, err)
		}
		got := fields(t, body)

		x, err := strconv.ParseUint(got["X"], 10, 16)
		if err != nil || uint16(x) != snap.JoystickX {
			t.Errorf("X = %q, want %d", got["X"], snap.JoystickX)
		}
		y, err := strconv.ParseUint(got["Y"], 10, 16)
		if err != nil || uint16(y) != snap.JoystickY {
			t.Errorf("Y = %q, want %d", got["Y"], snap.JoystickY)
		}
		if got["Button 1 state"] != (map[bool]string{true: StatePressed, false: StateReleased})[snap.Button1] {
			t.Errorf("Button 1 state = %q, want pressed=%v", got["Button 1 state"], snap.Button1)
		}
		if got["Button 2 state"] != (map[bool]string{true: StatePressed, false: StateReleased})[snap.Button2] {
			t.Errorf("Button 2 state = %q, want pressed=%v", got["Button 2 state"], snap.Button2)
		}
		if got["Button 1"] != snap.Button1Message {
			t.Errorf("Button 1 = %q, want %q", got["Button 1"], snap.Button1Message)
		}
		if got["Direction"] != snap.Direction.Label() {
			t.Errorf("Direction = %q, want %q", got["Direction"], snap.Direction.Label())
		}
	}
}
