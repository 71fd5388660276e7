package internal

import (
	"errors"
	"strconv"
	"strings"
)

// ParseGTFSTime parses a GTFS HH:MM:SS time value into seconds after midnight.
// Hours may exceed 24 for trips that run past midnight, but take at most two
// digits.
func ParseGTFSTime(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, errors.New("not a HH:MM:SS time")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || len(parts[0]) < 1 || len(parts[0]) > 2 {
		return 0, errors.New("bad hours")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, errors.New("bad minutes")
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 || len(parts[2]) != 2 {
		return 0, errors.New("bad seconds")
	}
	return h*3600 + m*60 + sec, nil
}
