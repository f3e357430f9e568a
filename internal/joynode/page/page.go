// Package page renders the status page served by the responder.
package page

import (
	"bytes"
	"html/template"

	"github.com/autopeer-io/joynode/internal/joynode/core"
)

// RefreshPath is requested by the page script every RefreshMillis.
const (
	RefreshPath   = "/update"
	RefreshMillis = 1000
)

// Button states as shown on the page.
const (
	StatePressed  = "pressed"
	StateReleased = "released"
)

var funcs = template.FuncMap{
	"state": func(pressed bool) string {
		if pressed {
			return StatePressed
		}
		return StateReleased
	},
}

var tmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Button Control</title>
<script>
setTimeout(function() {
  window.location.href = '{{.RefreshPath}}';
}, {{.RefreshMillis}});
</script>
</head>
<body>
<h1>Button Status</h1>
<p>Button 1: {{.Snapshot.Button1Message}}</p>
<p>Button 1 state: {{state .Snapshot.Button1}}</p>
<p>Button 2: {{.Snapshot.Button2Message}}</p>
<p>Button 2 state: {{state .Snapshot.Button2}}</p>
<h1>Joystick</h1>
<p>X: {{.Snapshot.JoystickX}}</p>
<p>Y: {{.Snapshot.JoystickY}}</p>
<p>Direction: {{.Snapshot.Direction.Label}}</p>
</body>
</html>
`))

type data struct {
	RefreshPath   string
	RefreshMillis int
	Snapshot      *core.Snapshot
}

// Render returns the HTML document for s.
func Render(s *core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data{
		RefreshPath:   RefreshPath,
		RefreshMillis: RefreshMillis,
		Snapshot:      s,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
