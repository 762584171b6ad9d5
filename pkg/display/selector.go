// Package display decides what the e-paper panel shows.
package display

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/types"
)

// Frame is one decision of what to put on the panel.
type Frame struct {
	Gallery bool   `json:"gallery"`
	Path    string `json:"path"`
	Caption string `json:"caption"`

	// Lunar calendar only.
	Index    int                  `json:"index,omitempty"`
	Phase    float64              `json:"phase,omitempty"`
	NextFull *astro.CalendarEvent `json:"nextFull,omitempty"`
	NextNew  *astro.CalendarEvent `json:"nextNew,omitempty"`
}

// Selector maps the current time to a Frame.
type Selector struct {
	Mode Mode
	// Files is consulted in the gallery modes.
	Files FileSelector
}

// Lunar computes the lunar calendar frame for now.
func Lunar(now types.Timestamp) Frame {
	now = now.Normalize()
	phase := astro.Phase(now)
	full := astro.NextEvent(now, astro.FullMoon)
	newMoon := astro.NextEvent(now, astro.NewMoon)
	index := ImageIndex(phase)

	return Frame{
		Path:     ImagePath(index),
		Caption:  Caption(now, full, newMoon),
		Index:    index,
		Phase:    phase,
		NextFull: &full,
		NextNew:  &newMoon,
	}
}

// Select returns the frame to show at now.
func (s *Selector) Select(now types.Timestamp) (Frame, error) {
	if s.Mode.IsGallery() {
		if s.Files == nil {
			return Frame{}, ErrEmptyGallery
		}
		p, err := s.Files.NextPath()
		if err != nil {
			return Frame{}, err
		}
		return Frame{Gallery: true, Path: p}, nil
	}

	f := Lunar(now)
	logrus.WithFields(logrus.Fields{
		"date":    now.String(),
		"phase":   f.Phase,
		"path":    f.Path,
		"caption": f.Caption,
	}).Debug("lunar frame selected")

	return f, nil
}
