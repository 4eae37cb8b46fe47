package agenda

import (
	"errors"
	"fmt"
)

// Working hours of the clinic, in minutes since midnight.
const (
	OpeningMinute = 8 * 60  // 08:00
	ClosingMinute = 19 * 60 // 19:00
)

// SlotGranularity is the finest bookable increment.
const SlotGranularity = 15

var ErrBadTimeFormat = errors.New("time must be a 4-digit HHMM value between 0000 and 2359")

// ToMinutes parses a time-of-day in HHMM form into minutes since
// midnight. Anything that is not exactly four digits in the 0000-2359
// range fails with ErrBadTimeFormat.
func ToMinutes(hhmm string) (int, error) {
	if len(hhmm) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, hhmm)
	}
	for i := 0; i < 4; i++ {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, hhmm)
		}
	}

	hours := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minutes := int(hhmm[2]-'0')*10 + int(hhmm[3]-'0')
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, hhmm)
	}

	return hours*60 + minutes, nil
}

// IsQuarterHour reports whether a minute offset falls on a quarter-hour
// boundary.
func IsQuarterHour(minutes int) bool {
	return minutes%SlotGranularity == 0
}

// FormatMinutes renders a minute offset back into HHMM form for display.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
}
