package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	maxImageSide = 1920
	webpQuality  = 75
	videoHeight  = 720
)

type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindVideo
)

func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return KindImage
	case ".mp4", ".mov", ".m4v", ".webm":
		return KindVideo
	}
	return KindOther
}

// IsOptimized reports whether name is already an -opt artefact.
func IsOptimized(name string) bool {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return strings.HasSuffix(base, "-opt")
}

func optimizedPath(src, ext string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "-opt" + ext
}

type Optimizer struct {
	FFmpeg string
}

// Optimize re-encodes src according to its kind and returns the new path.
// src is never removed; the caller drops it once nothing references it.
func (o *Optimizer) Optimize(ctx context.Context, src string) (string, error) {
	if IsOptimized(src) {
		return src, nil
	}
	switch KindOf(src) {
	case KindImage:
		return o.Image(src)
	case KindVideo:
		return o.Video(ctx, src)
	}
	return src, nil
}

func (o *Optimizer) Image(src string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return src, fmt.Errorf("decoding %s: %w", filepath.Base(src), err)
	}
	img = fitInside(img, maxImageSide)

	dst := optimizedPath(src, ".webp")
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return src, fmt.Errorf("encoding %s: %w", filepath.Base(dst), err)
	}
	if err := writeAtomic(dst, buf.Bytes()); err != nil {
		return src, err
	}
	return dst, nil
}

// fitInside scales img down to fit a side x side box; smaller images are
// returned unchanged.
func fitInside(img image.Image, side int) image.Image {
	b := img.Bounds()
	if b.Dx() <= side && b.Dy() <= side {
		return img
	}
	return imaging.Fit(img, side, side, imaging.Lanczos)
}

func writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".opt-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", filepath.Base(dst), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming %s: %w", filepath.Base(dst), err)
	}
	return nil
}

func videoArgs(src, dst string) []string {
	return []string{
		"-y", "-i", src,
		"-c:v", "libx264",
		"-vf", fmt.Sprintf("scale=-2:%d", videoHeight),
		"-crf", "28",
		"-preset", "veryfast",
		"-movflags", "+faststart",
		"-an",
		dst,
	}
}

func (o *Optimizer) Video(ctx context.Context, src string) (string, error) {
	bin := o.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	dst := optimizedPath(src, ".mp4")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, videoArgs(src, dst)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(dst)
		return src, fmt.Errorf("transcoding %s: %w: %s", filepath.Base(src), err, tail(stderr.String(), 512))
	}
	return dst, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
