package display

import (
	"fmt"
	"math"

	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/types"
)

// PhaseImages is the number of moon images on the card, pic/01.bmp (new
// moon) through pic/32.bmp (waning crescent).
const PhaseImages = 32

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthAbbrev returns the three-letter name of month m (1-12), or "???".
func MonthAbbrev(m int) string {
	if m < 1 || m > 12 {
		return "???"
	}
	return monthAbbrev[m-1]
}

// ImageIndex maps a phase to an image number in 1..32. Phases that round to
// 32 wrap back to the new-moon image.
func ImageIndex(phase float64) int {
	return int(math.Round(phase*PhaseImages))%PhaseImages + 1
}

// ImagePath returns the card path of image index.
func ImagePath(index int) string {
	return fmt.Sprintf("pic/%02d.bmp", index)
}

// Caption renders the footer text of the lunar calendar.
func Caption(now types.Timestamp, fullMoon, newMoon astro.CalendarEvent) string {
	return fmt.Sprintf("%s %d, %d | full: %s %d | new: %s %d",
		MonthAbbrev(now.Month), now.Day, now.Year,
		MonthAbbrev(fullMoon.Month), fullMoon.Day,
		MonthAbbrev(newMoon.Month), newMoon.Day)
}
