package common

import (
	"strconv"
	"strings"
)

// ParseHMS parses a "HH:MM:SS" wall-time-limit string into seconds.
// A malformed string parses to MaxExpCompletion, matching the "never
// satisfied" sentinel the Supervisor uses for unknown projections.
func ParseHMS(s string) int64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return MaxExpCompletion
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return MaxExpCompletion
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return MaxExpCompletion
	}
	sec, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return MaxExpCompletion
	}
	return h*3600 + m*60 + sec
}
