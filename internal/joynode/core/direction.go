package core

import "fmt"

// Direction is the classified position of the joystick.
type Direction int

const (
	Center Direction = iota
	North
	Northeast
	East
	Southeast
	South
	Southwest
	West
	Northwest
)

// Directions lists every direction in code order.
var Directions = []Direction{Center, North, Northeast, East, Southeast, South, Southwest, West, Northwest}

var labels = [...]string{
	Center:    "Center",
	North:     "North",
	Northeast: "Northeast",
	East:      "East",
	Southeast: "Southeast",
	South:     "South",
	Southwest: "Southwest",
	West:      "West",
	Northwest: "Northwest",
}

// Code is the numeric value uploaded as field5.
func (d Direction) Code() int {
	return int(d)
}

// Label is the name shown on the status page.
func (d Direction) Label() string {
	if d < Center || d > Northwest {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return labels[d]
}

func (d Direction) String() string {
	return d.Label()
}

// MarshalText encodes the label.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.Label()), nil
}

// Thresholds are the ADC bounds used by Classify.
type Thresholds struct {
	CenterMin uint16
	CenterMax uint16
	Low       uint16
	High      uint16
}

// DefaultThresholds matches a 12-bit ADC centered near 2048.
func DefaultThresholds() Thresholds {
	return Thresholds{CenterMin: 2000, CenterMax: 2100, Low: 1000, High: 3000}
}

// Classify maps raw axis readings to a direction. Rules are checked in
// order and the first match wins. The Y axis picks west/east and the X axis
// picks north/south, following how the stick is mounted on the board.
func (t Thresholds) Classify(x, y uint16) Direction {
	switch {
	case x >= t.CenterMin && x <= t.CenterMax && y >= t.CenterMin && y <= t.CenterMax:
		return Center
	case y < t.Low && x > t.High:
		return Northwest
	case y < t.Low && x < t.Low:
		return Southwest
	case y > t.High && x > t.High:
		return Northeast
	case y > t.High && x < t.Low:
		return Southeast
	case y < t.Low:
		return West
	case y > t.High:
		return East
	case x > t.High:
		return North
	case x < t.Low:
		return South
	default:
		return Center
	}
}
