package render

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"floodviz/internal/extrude"
)

// SavePNG writes a single static frame at the configured view angle.
func SavePNG(path string, extrusions []extrude.Extrusion, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, Image(extrusions, opts, opts.Azimuth)); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// SaveAnimation renders a full rotation and encodes it. The extension
// selects the encoder: .gif uses the built-in GIF encoder, .mp4 pipes PNG
// frames to ffmpeg, and any other extension is coerced to .mp4.
func SaveAnimation(path string, extrusions []extrude.Extrusion, opts Options) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	frames := rotationFrames(extrusions, opts)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return path, saveGIF(path, frames, opts.FPS)
	case ".mp4":
		return path, saveMP4(path, frames, opts.FPS)
	default:
		coerced := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp4"
		slog.Info("unrecognized animation extension, writing mp4", "path", coerced)
		return coerced, saveMP4(coerced, frames, opts.FPS)
	}
}

func rotationFrames(extrusions []extrude.Extrusion, opts Options) []image.Image {
	step := opts.FrameStep
	if step <= 0 {
		step = DefaultOptions().FrameStep
	}
	var frames []image.Image
	for az := 0.0; az < 360; az += step {
		frames = append(frames, Image(extrusions, opts, az))
	}
	return frames
}

func saveGIF(path string, frames []image.Image, fps int) error {
	if fps <= 0 {
		fps = DefaultOptions().FPS
	}
	out := &gif.GIF{}
	delay := 100 / fps // GIF delays are hundredths of a second
	for _, frame := range frames {
		pal := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, frame.Bounds(), frame, image.Point{})
		out.Image = append(out.Image, pal)
		out.Delay = append(out.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, out); err != nil {
		return fmt.Errorf("render: encode gif: %w", err)
	}
	return nil
}

func saveMP4(path string, frames []image.Image, fps int) error {
	if fps <= 0 {
		fps = DefaultOptions().FPS
	}
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "image2pipe", "-vcodec", "png",
		"-r", fmt.Sprint(fps), "-i", "-",
		"-pix_fmt", "yuv420p", path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("render: ffmpeg: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("render: ffmpeg not available: %w", err)
	}
	for _, frame := range frames {
		if err := png.Encode(stdin, frame); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("render: ffmpeg pipe: %w", err)
		}
	}
	if err := stdin.Close(); err != nil {
		cmd.Wait()
		return fmt.Errorf("render: ffmpeg pipe: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("render: ffmpeg: %w", err)
	}
	return nil
}
