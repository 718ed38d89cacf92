package models

import "math"

// Level converts an accumulator (wealth or recharge points) into the 1..200
// badge level shown next to chat messages.
func Level(points float64) int {
	if points <= 0 {
		return 1
	}
	l := int(math.Floor(math.Sqrt(points / 50000)))
	if l < 1 {
		return 1
	}
	if l > 200 {
		return 200
	}
	return l
}
