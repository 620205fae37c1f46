package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/texture"
	"golang.org/x/image/bmp"
)

const defaultOut = "tinyrender.png"

// renderImages writes frames color (and optionally depth) images. With more
// than one frame the camera makes one full turn around its target and every
// file name gets a frame number.
func renderImages(sc *render.Scene, opts render.Options, out, depth string, frames int) error {
	if out == "" && depth == "" {
		out = defaultOut
	}
	frames = max(frames, 1)

	r := render.NewRenderer(slog.Default())
	var pb *progressbar.ProgressBar
	if frames > 1 {
		pb = progressbar.Default(int64(frames), "rendering")
		defer pb.Close()
	}

	step := 2 * math.Pi / float64(frames)
	for i := range frames {
		f, err := r.Render(sc, opts)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		if out != "" {
			if err := writeImage(framePath(out, i, frames), f.Color.ToImage()); err != nil {
				return err
			}
		}
		if depth != "" && f.Depth != nil {
			if err := writeImage(framePath(depth, i, frames), f.Depth.ToImage()); err != nil {
				return err
			}
		}

		st := r.Stats()
		slog.Debug("frame written", "frame", i, "drawn", st.ModelsDrawn, "fragments", st.Fragments)
		if pb != nil {
			pb.Add(1)
		}
		render.OrbitY(&sc.Camera, step)
	}
	if depth != "" && !opts.DepthBuffer {
		slog.Warn("depth buffer disabled, no depth image written", "path", depth)
	}
	return nil
}

// framePath numbers path for multi-frame output: out.png becomes
// out-003.png.
func framePath(path string, i, frames int) string {
	if frames <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(path, ext), i, ext)
}

// writeImage encodes img by the file extension.
func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tga":
		var t *texture.Image
		if t, err = texture.FromImage(img); err == nil {
			err = texture.EncodeRLE(f, t)
		}
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
