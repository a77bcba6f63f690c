package container

import (
	"math"
	"strconv"
	"strings"
)

// DisplayMatrixRotation returns the counter-clockwise rotation encoded in
// a 3x3 16.16 fixed-point display matrix.
func DisplayMatrixRotation(matrix []int32) (float64, bool) {
	if len(matrix) < 9 {
		return 0, false
	}
	conv := func(v int32) float64 { return float64(v) / (1 << 16) }
	scale0 := math.Hypot(conv(matrix[0]), conv(matrix[3]))
	scale1 := math.Hypot(conv(matrix[1]), conv(matrix[4]))
	if scale0 == 0 || scale1 == 0 {
		return 0, false
	}
	rotation := math.Atan2(conv(matrix[1])/scale1, conv(matrix[0])/scale0) * 180 / math.Pi
	return -rotation, true
}

// Rotation derives the clockwise display rotation in [0, 360) from the
// "rotate" metadata tag and the display matrix; the matrix wins.
func Rotation(rotateTag string, displayMatrix []int32) int {
	rotation := 0
	if rotateTag != "" {
		rotation = normalizeDegrees(atoi(rotateTag))
	}
	if theta, ok := DisplayMatrixRotation(displayMatrix); ok {
		rotation = normalizeDegrees(int(math.Round(-theta)))
	}
	return rotation
}

func normalizeDegrees(v int) int {
	v %= 360
	if v < 0 {
		v += 360
	}
	return v
}

// atoi parses the leading integer of s, ignoring whatever follows it.
func atoi(s string) int {
	s = strings.TrimLeft(s, " \t\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
