package display

import "fmt"

// Mode selects what the frame shows. It is chosen once at startup.
type Mode string

const (
	// AutoSortedGallery rotates through pic/*.bmp in name order.
	AutoSortedGallery Mode = "gallery-sorted"
	// AutoUnsortedGallery rotates through pic/*.bmp in directory order.
	AutoUnsortedGallery Mode = "gallery-unsorted"
	// ManualFileList rotates through the names listed in fileList.txt.
	ManualFileList Mode = "file-list"
	// LunarCalendar shows the current moon phase and the next full and new moon.
	LunarCalendar Mode = "lunar"
)

var modes = []Mode{AutoSortedGallery, AutoUnsortedGallery, ManualFileList, LunarCalendar}

// Modes lists every valid mode.
func Modes() []Mode {
	return append([]Mode(nil), modes...)
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown display mode %q, must be one of %v", s, modes)
}

// IsGallery reports whether m shows images from the card instead of the
// lunar calendar.
func (m Mode) IsGallery() bool {
	return m != LunarCalendar
}
