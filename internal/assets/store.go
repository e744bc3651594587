// Package assets persists the binary payloads of history entries: captured
// images, thumbnails and copies of video files. Every file lives under one of
// three areas of a base directory and is named by a fresh UUID.
package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/berrythewa/mediaclip/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Area is one of the asset directories
type Area string

const (
	AreaImages     Area = "images"
	AreaThumbnails Area = "thumbnails"
	AreaMedia      Area = "media"
)

var areas = []Area{AreaImages, AreaThumbnails, AreaMedia}

// ErrUnsupported is returned for references that do not address a file in the store
var ErrUnsupported = errors.New("unsupported asset reference")

// Ref addresses a file owned by the store
type Ref struct {
	Area Area
	Name string
}

// IsZero reports whether the reference is empty
func (r Ref) IsZero() bool {
	return r.Name == ""
}

func (r Ref) String() string {
	return string(r.Area) + "/" + r.Name
}

// Store owns the asset directories
type Store struct {
	baseDir string
	logger  *zap.Logger
}

// New creates the asset areas under baseDir
func New(baseDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{baseDir: baseDir, logger: logger}
	for _, area := range areas {
		if err := os.MkdirAll(s.Dir(area), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", area, err)
		}
	}
	return s, nil
}

// Dir returns the directory of an area
func (s *Store) Dir(area Area) string {
	return filepath.Join(s.baseDir, string(area))
}

// Path returns the absolute path of the referenced file
func (s *Store) Path(ref Ref) string {
	return filepath.Join(s.Dir(ref.Area), ref.Name)
}

// RefForPath converts an absolute path back into a reference. It reports false
// for paths outside the store.
func (s *Store) RefForPath(path string) (Ref, bool) {
	if path == "" {
		return Ref{}, false
	}
	dir, name := filepath.Split(filepath.Clean(path))
	dir = filepath.Clean(dir)
	for _, area := range areas {
		if dir == s.Dir(area) {
			return Ref{Area: area, Name: name}, true
		}
	}
	return Ref{}, false
}

// StoreImage writes image bytes under a fresh name. ext defaults to ".png".
func (s *Store) StoreImage(data []byte, ext string) (Ref, error) {
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return s.write(AreaImages, strings.ToLower(ext), data)
}

// StoreThumbnail writes JPEG thumbnail bytes under a fresh name
func (s *Store) StoreThumbnail(data []byte) (Ref, error) {
	return s.write(AreaThumbnails, ".jpg", data)
}

func (s *Store) write(area Area, ext string, data []byte) (Ref, error) {
	ref := Ref{Area: area, Name: uuid.NewString() + ext}
	if err := utils.WriteFileAtomic(s.Path(ref), data, 0644); err != nil {
		return Ref{}, fmt.Errorf("failed to store %s: %w", area, err)
	}
	return ref, nil
}

// StoreVideo copies the video at src into the media area. If a file of exactly
// the same byte size is already present, its reference is returned instead and
// nothing is copied. Equal-sized distinct videos therefore collapse into one.
func (s *Store) StoreVideo(src string) (Ref, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to stat source video: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Ref{}, fmt.Errorf("source video %s is not a regular file", src)
	}

	if existing, ok := s.findVideoBySize(info.Size()); ok {
		s.logger.Debug("Reusing stored video of equal size",
			zap.String("source", src),
			zap.String("existing", existing.Name),
			zap.Int64("size", info.Size()))
		return existing, nil
	}

	ref := Ref{Area: AreaMedia, Name: uuid.NewString() + strings.ToLower(filepath.Ext(src))}
	if err := s.copyInto(src, s.Path(ref)); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

func (s *Store) copyInto(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source video: %w", err)
	}
	defer in.Close()

	// Copy to a hidden temp name first so a partial copy is never matched
	// by the size scan or left under the final name.
	tmpPath, out, err := utils.CreateTempFile(filepath.Dir(dest), ".incoming", ".tmp")
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy video: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close media file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move media file into place: %w", err)
	}
	return nil
}

func (s *Store) findVideoBySize(size int64) (Ref, bool) {
	entries, err := os.ReadDir(s.Dir(AreaMedia))
	if err != nil {
		return Ref{}, false
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() == size {
			return Ref{Area: AreaMedia, Name: entry.Name()}, true
		}
	}
	return Ref{}, false
}

func (s *Store) validate(ref Ref) error {
	if ref.Name == "" || ref.Name != filepath.Base(ref.Name) || strings.HasPrefix(ref.Name, ".") {
		return fmt.Errorf("%w: %q", ErrUnsupported, ref.Name)
	}
	for _, area := range areas {
		if ref.Area == area {
			return nil
		}
	}
	return fmt.Errorf("%w: area %q", ErrUnsupported, ref.Area)
}

// Load reads the referenced file. A missing file yields an error wrapping fs.ErrNotExist.
func (s *Store) Load(ref Ref) ([]byte, error) {
	if err := s.validate(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the referenced file; a missing file is not an error
func (s *Store) Delete(ref Ref) error {
	if err := s.validate(ref); err != nil {
		return err
	}
	if err := os.Remove(s.Path(ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// UsageBytes sums file sizes across all areas, recursively
func (s *Store) UsageBytes() (int64, error) {
	var total int64
	for _, area := range areas {
		err := filepath.WalkDir(s.Dir(area), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			total += info.Size()
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("failed to measure %s: %w", area, err)
		}
	}
	return total, nil
}
