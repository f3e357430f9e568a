package core

import "fmt"

// ButtonMonitor turns raw button levels into the messages shown on the page.
// A message changes only on a press or release edge.
type ButtonMonitor struct {
	pressed  []bool
	messages []string
}

// NewButtonMonitor tracks n buttons, numbered from 1, all released.
func NewButtonMonitor(n int) *ButtonMonitor {
	m := &ButtonMonitor{
		pressed:  make([]bool, n),
		messages: make([]string, n),
	}
	for i := range m.messages {
		m.messages[i] = fmt.Sprintf("No event on button %d", i+1)
	}
	return m
}

// Update records the current levels. Extra values are ignored.
func (m *ButtonMonitor) Update(pressed ...bool) {
	for i, p := range pressed {
		if i >= len(m.pressed) || p == m.pressed[i] {
			continue
		}
		m.pressed[i] = p
		if p {
			m.messages[i] = fmt.Sprintf("Button %d was pressed!", i+1)
		} else {
			m.messages[i] = fmt.Sprintf("Button %d was released!", i+1)
		}
	}
}

// Message returns the message of button n (1-based).
func (m *ButtonMonitor) Message(n int) string {
	if n < 1 || n > len(m.messages) {
		return ""
	}
	return m.messages[n-1]
}
