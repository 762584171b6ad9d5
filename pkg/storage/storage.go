// Package storage gives access to the frame's SD card.
package storage

import (
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned when a file is missing from the card.
	ErrNotFound = errors.New("file not found")
	// ErrNoCard is returned when no card is inserted.
	ErrNoCard = errors.New("no card present")
)

// Storage is the SD card collaborator.
type Storage interface {
	// Present reports whether a card is inserted and mounted.
	Present() bool
	// ReadTextFile returns the content of path, or ErrNotFound.
	ReadTextFile(path string) ([]byte, error)
	// Fs exposes the card filesystem.
	Fs() afero.Fs
}

var _ Storage = &Card{}

// Card is a Storage rooted at a directory of an afero filesystem.
type Card struct {
	fs      afero.Fs
	root    string
	present bool
}

// NewCard mounts root on the host filesystem. A missing root directory
// means no card is inserted.
func NewCard(root string) *Card {
	return NewCardFs(afero.NewOsFs(), root)
}

// NewCardFs mounts root on fs.
func NewCardFs(fs afero.Fs, root string) *Card {
	present := false
	if root != "" {
		st, err := fs.Stat(root)
		switch {
		case err == nil && st.IsDir():
			present = true
		case err != nil && !os.IsNotExist(err):
			logrus.WithError(err).Warnf("failed to stat card root %s", root)
		}
	}

	c := &Card{root: root, present: present}
	if present {
		c.fs = afero.NewBasePathFs(fs, root)
	} else {
		c.fs = afero.NewMemMapFs()
	}

	logrus.WithFields(logrus.Fields{
		"root":    root,
		"present": present,
	}).Debug("card mounted")

	return c
}

func (c *Card) Present() bool {
	return c.present
}

func (c *Card) Fs() afero.Fs {
	return c.fs
}

func (c *Card) ReadTextFile(path string) ([]byte, error) {
	if !c.present {
		return nil, ErrNoCard
	}

	b, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to read %s from card", path)
	}
	return b, nil
}
