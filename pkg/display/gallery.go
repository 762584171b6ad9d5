package display

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	PictureDir   = "pic"
	FileListName = "fileList.txt"
	// IndexFileName keeps the position in the rotation across wakes.
	IndexFileName = "index.txt"
)

// ErrEmptyGallery is returned when there is nothing to show.
var ErrEmptyGallery = errors.New("no pictures found")

// FileSelector picks the next image to show in the gallery modes.
type FileSelector interface {
	NextPath() (string, error)
}

var _ FileSelector = &Gallery{}

// Gallery rotates through the pictures on the card, one per wake.
type Gallery struct {
	fs    afero.Fs
	mode  Mode
	files []string
}

// NewGallery builds the picture list for mode from fs.
func NewGallery(fs afero.Fs, mode Mode) (*Gallery, error) {
	g := &Gallery{fs: fs, mode: mode}

	var err error
	switch mode {
	case AutoSortedGallery:
		g.files, err = scanPictures(fs)
		sort.Strings(g.files)
	case AutoUnsortedGallery:
		g.files, err = scanPictures(fs)
	case ManualFileList:
		g.files, err = readFileList(fs)
	default:
		return nil, fmt.Errorf("mode %q is not a gallery mode", mode)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"mode":  mode,
		"files": len(g.files),
	}).Info("gallery loaded")

	return g, nil
}

// Files returns the rotation in display order.
func (g *Gallery) Files() []string {
	return append([]string(nil), g.files...)
}

// scanPictures lists pic/*.bmp in directory order.
func scanPictures(fs afero.Fs) ([]string, error) {
	dir, err := fs.Open(PictureDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEmptyGallery
		}
		return nil, pkgerrors.Wrapf(err, "failed to open %s", PictureDir)
	}
	defer dir.Close()

	infos, err := dir.Readdir(-1)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to scan %s", PictureDir)
	}

	var files []string
	for _, fi := range infos {
		if fi.IsDir() || !strings.EqualFold(path.Ext(fi.Name()), ".bmp") {
			continue
		}
		files = append(files, path.Join(PictureDir, fi.Name()))
	}
	return files, nil
}

// readFileList reads fileList.txt: one picture per line, relative to pic/
// unless the line contains a directory. Blank lines and lines starting with
// '#' are skipped.
func readFileList(fs afero.Fs) ([]string, error) {
	b, err := afero.ReadFile(fs, FileListName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEmptyGallery
		}
		return nil, pkgerrors.Wrapf(err, "failed to read %s", FileListName)
	}

	var files []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "/") {
			line = path.Join(PictureDir, line)
		}
		files = append(files, line)
	}
	return files, sc.Err()
}

func (g *Gallery) loadIndex() int {
	b, err := afero.ReadFile(g.fs, IndexFileName)
	if err != nil {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || i < 0 {
		logrus.Warnf("ignoring invalid %s content %q", IndexFileName, string(b))
		return 0
	}
	return i
}

// NextPath returns the picture to show now and advances the rotation.
func (g *Gallery) NextPath() (string, error) {
	if len(g.files) == 0 {
		return "", ErrEmptyGallery
	}

	i := g.loadIndex() % len(g.files)
	next := (i + 1) % len(g.files)
	if err := afero.WriteFile(g.fs, IndexFileName, []byte(strconv.Itoa(next)), 0644); err != nil {
		// Showing the same picture again next time is acceptable.
		logrus.Errorf("saving gallery index failed: %v", err)
	}

	return g.files[i], nil
}
