package display

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Renderer drives the e-paper panel.
type Renderer interface {
	// RenderGallery shows the panel's built-in picture. It is used when no
	// card is inserted.
	RenderGallery(voltage float64) error
	// RenderImage shows the bitmap at path with caption as footer.
	RenderImage(path, caption string, voltage float64) error
}

// Refresh pushes f to r, calling exactly one render method.
func Refresh(r Renderer, f Frame, voltage float64, hasCard bool) error {
	if !hasCard {
		return r.RenderGallery(voltage)
	}
	return r.RenderImage(f.Path, f.Caption, voltage)
}

// Rendered records one render call.
type Rendered struct {
	Builtin bool    `json:"builtin"`
	Path    string  `json:"path,omitempty"`
	Caption string  `json:"caption,omitempty"`
	Voltage float64 `json:"voltage"`
}

var _ Renderer = &LogRenderer{}

// LogRenderer stands in for the panel driver: it logs what would be drawn
// and keeps the last call.
type LogRenderer struct {
	mu   sync.Mutex
	last *Rendered
}

func (l *LogRenderer) RenderGallery(voltage float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = &Rendered{Builtin: true, Voltage: voltage}
	logrus.WithField("voltage", voltage).Info("rendering built-in picture")
	return nil
}

func (l *LogRenderer) RenderImage(path, caption string, voltage float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = &Rendered{Path: path, Caption: caption, Voltage: voltage}
	logrus.WithFields(logrus.Fields{
		"path":    path,
		"caption": caption,
		"voltage": voltage,
	}).Info("rendering picture")
	return nil
}

// Last returns the last render call, or nil.
func (l *LogRenderer) Last() *Rendered {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return nil
	}
	r := *l.last
	return &r
}
