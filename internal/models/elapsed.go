package models

import (
	"fmt"
	"time"
)

// FormatElapsed renders the whole-second span between from and to using the
// coarsest two units: "N s", "N min", "H h M min" or "D j H h". Every unit
// is truncated, never rounded. Negative spans render as "0 s".
func FormatElapsed(from, to time.Time) string {
	sec := int64(to.Sub(from) / time.Second)
	if sec < 0 {
		sec = 0
	}
	if sec < 60 {
		return fmt.Sprintf("%d s", sec)
	}

	minutes := sec / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d h %d min", hours, minutes%60)
	}

	return fmt.Sprintf("%d j %d h", hours/24, hours%24)
}
