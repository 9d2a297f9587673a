package servobus

import "math"

const (
	// MaxPosition is the top of the 12-bit position range, which spans a full
	// turn.
	MaxPosition = 4095

	// MaxSpeed is the largest goal speed the bench tools ever wrote.
	MaxSpeed = 254
)

// AngleToPosition converts degrees (0-360) into servo steps, clamped to the
// position range.
func AngleToPosition(angle float64) int {
	pos := int(math.Round(angle / 360 * MaxPosition))
	if pos < 0 {
		return 0
	}
	if pos > MaxPosition {
		return MaxPosition
	}
	return pos
}

// PositionToAngle is the inverse of AngleToPosition.
func PositionToAngle(pos int) float64 {
	return float64(pos) * 360 / MaxPosition
}

// EncodeWord returns v as the two little-endian bytes the servo registers use.
func EncodeWord(v int) []byte {
	return []byte{byte(v & 0xFF), byte((v >> 8) & 0xFF)}
}

// DecodeWord reads a little-endian register pair.
func DecodeWord(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	return int(b[0]) | int(b[1])<<8
}
