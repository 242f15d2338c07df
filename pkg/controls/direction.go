package controls

import "strings"

// Direction is a logical movement direction commanded by a held key
type Direction int

const (
	Forward Direction = iota
	Left
	Backward
	Right
)

// directions lists every direction in the order Update applies them
var directions = [...]Direction{Forward, Left, Backward, Right}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "Forward"
	case Left:
		return "Left"
	case Backward:
		return "Backward"
	case Right:
		return "Right"
	}
	return "Unknown"
}

// DirectionForKey maps a textual key identifier to a direction.
// Matching is case-insensitive; ok is false for keys that do not move.
func DirectionForKey(key string) (d Direction, ok bool) {
	switch strings.ToLower(key) {
	case "w":
		return Forward, true
	case "a":
		return Left, true
	case "s":
		return Backward, true
	case "d":
		return Right, true
	}
	return 0, false
}
