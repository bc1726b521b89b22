// Package imagedir captures frames from a directory of still images,
// visited in lexicographic order. Useful for offline runs and tests where
// no camera or OpenCV runtime is available.
package imagedir

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/crimson-sun/moodcam/internal/capture"
	"github.com/crimson-sun/moodcam/internal/model"
)

func init() {
	capture.Register("imagedir", func(cfg capture.Config) (capture.Source, error) {
		return Open(cfg.Input)
	})
}

var extensions = map[string]bool{
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// Source walks a fixed list of image files captured at Open time. Files
// added to the directory afterwards are not picked up.
type Source struct {
	paths []string
	name  string
	pos   int
	seq   int64
}

// Open lists the image files under dir. An empty directory is valid; the
// first Next call reports the end of the stream.
func Open(dir string) (*Source, error) {
	if dir == "" {
		return nil, fmt.Errorf("imagedir: missing directory path")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("imagedir: read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return &Source{paths: paths, name: "imagedir:" + dir}, nil
}

// Next decodes the next image file. An undecodable file is an error for
// that frame only; the following call moves on to the next file.
func (s *Source) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if s.pos >= len(s.paths) {
		return model.Frame{}, capture.ErrStreamEnded
	}

	path := s.paths[s.pos]
	s.pos++

	f, err := os.Open(path)
	if err != nil {
		return model.Frame{}, fmt.Errorf("imagedir: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return model.Frame{}, fmt.Errorf("imagedir: decode %s: %w", path, err)
	}

	s.seq++
	return model.Frame{
		ID:        uuid.New(),
		Seq:       s.seq,
		Timestamp: time.Now(),
		Source:    s.name,
		Image:     img,
	}, nil
}

// Close is a no-op; files are opened and closed per frame.
func (s *Source) Close() error { return nil }
