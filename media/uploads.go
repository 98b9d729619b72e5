// Package media stores uploaded listing media and optimizes it in the
// background.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const URLPrefix = "/uploads/"

const (
	FieldMap3D       = "map3dFile"
	FieldVirtualTour = "virtualTourFile"
	FieldImages      = "images"
	FieldVideos      = "videos"
)

var (
	ErrUnsupportedType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files")
)

type fieldRule struct {
	max     int
	allowed map[string]bool
}

var mediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"video/mp4":  true,
}

var fieldRules = map[string]fieldRule{
	FieldMap3D: {max: 1, allowed: map[string]bool{
		"image/jpeg": true, "image/png": true, "image/webp": true, "video/mp4": true,
		"model/gltf-binary": true, "application/octet-stream": true,
	}},
	FieldVirtualTour: {max: 1, allowed: mediaTypes},
	FieldImages:      {max: 10, allowed: mediaTypes},
	FieldVideos:      {max: 10, allowed: mediaTypes},
}

var extByType = map[string]string{
	"image/jpeg":        ".jpg",
	"image/png":         ".png",
	"image/webp":        ".webp",
	"video/mp4":         ".mp4",
	"model/gltf-binary": ".glb",
	// map3d uploads from browsers that do not know the glTF type
	"application/octet-stream": ".glb",
}

// Saved holds the raw URLs of one request's stored uploads.
type Saved struct {
	Map3D       string
	VirtualTour string
	Images      []string
	Videos      []string
}

// Optimizable lists the raw URLs the pipeline should re-encode. 3D maps are
// served as uploaded.
func (s *Saved) Optimizable() []string {
	if s == nil {
		return nil
	}
	urls := append([]string{}, s.Images...)
	urls = append(urls, s.Videos...)
	if s.VirtualTour != "" {
		urls = append(urls, s.VirtualTour)
	}
	return urls
}

func (s *Saved) all() []string {
	urls := s.Optimizable()
	if s.Map3D != "" {
		urls = append(urls, s.Map3D)
	}
	return urls
}

type Uploads struct {
	Dir      string
	MaxBytes int64
}

// Save validates every file in form before writing any of them to disk.
func (u *Uploads) Save(form *multipart.Form) (*Saved, error) {
	saved := &Saved{}
	if form == nil {
		return saved, nil
	}
	for field, rule := range fieldRules {
		files := form.File[field]
		if len(files) > rule.max {
			return nil, fmt.Errorf("%w: %s accepts at most %d", ErrTooManyFiles, field, rule.max)
		}
		for _, fh := range files {
			if err := u.check(fh, rule); err != nil {
				return nil, fmt.Errorf("%s %q: %w", field, fh.Filename, err)
			}
		}
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	for _, field := range []string{FieldMap3D, FieldVirtualTour, FieldImages, FieldVideos} {
		for _, fh := range form.File[field] {
			url, err := u.write(field, fh)
			if err != nil {
				u.Remove(saved.all())
				return nil, err
			}
			switch field {
			case FieldMap3D:
				saved.Map3D = url
			case FieldVirtualTour:
				saved.VirtualTour = url
			case FieldImages:
				saved.Images = append(saved.Images, url)
			case FieldVideos:
				saved.Videos = append(saved.Videos, url)
			}
		}
	}
	return saved, nil
}

func (u *Uploads) check(fh *multipart.FileHeader, rule fieldRule) error {
	if !rule.allowed[contentType(fh)] {
		return ErrUnsupportedType
	}
	if u.MaxBytes > 0 && fh.Size > u.MaxBytes {
		return ErrFileTooLarge
	}
	return nil
}

func contentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func (u *Uploads) write(field string, fh *multipart.FileHeader) (string, error) {
	// The client's file name never decides how the file is served.
	name := field + "-" + uuid.NewString() + extByType[contentType(fh)]

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(u.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return URLPrefix + name, nil
}

// Path maps an /uploads URL to its file. Anything else, including URLs that
// try to leave the upload dir, yields ok == false.
func (u *Uploads) Path(url string) (string, bool) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != path.Base(name) || name == ".." {
		return "", false
	}
	return filepath.Join(u.Dir, name), true
}

// Remove deletes the files behind urls, ignoring ones already gone, and
// returns how many were removed.
func (u *Uploads) Remove(urls []string) int {
	removed := 0
	for _, url := range urls {
		p, ok := u.Path(url)
		if !ok {
			continue
		}
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed
}
