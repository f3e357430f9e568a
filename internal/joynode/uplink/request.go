package uplink

import (
	"fmt"
	"net/url"

	"github.com/autopeer-io/joynode/internal/joynode/core"
)

const requestFormat = "GET /update?api_key=%s&field1=%d&field2=%d&field3=%d&field4=%d&field5=%d HTTP/1.1\r\n" +
	"Host: %s\r\n" +
	"Connection: close\r\n" +
	"\r\n"

// FormatRequest builds the ThingSpeak update request for s.
func FormatRequest(apiKey, host string, s *core.Snapshot) []byte {
	return fmt.Appendf(nil, requestFormat,
		url.QueryEscape(apiKey),
		core.ButtonCode(s.Button1),
		core.ButtonCode(s.Button2),
		s.JoystickX,
		s.JoystickY,
		s.Direction.Code(),
		host,
	)
}
