package kmz

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"floodviz/internal/geo"
)

// Errors surfaced by Load. Archive errors mean the container itself is
// missing or holds no markup; format errors mean no driver could read the
// markup it does hold.
var (
	ErrArchive          = errors.New("kmz: archive unreadable")
	ErrNoMarkup         = errors.New("kmz: no markup document inside archive")
	ErrUnreadableMarkup = errors.New("kmz: no driver could read markup document")
)

// Options configures the loader. Zero values fall back to the documented
// defaults, so Load(path, Options{}) behaves like Load(path, DefaultOptions()).
type Options struct {
	// MarkupExt is the extension of the embedded markup document,
	// matched case-insensitively. Default ".kml".
	MarkupExt string
}

func DefaultOptions() Options {
	return Options{MarkupExt: ".kml"}
}

// Load extracts the archive into a temporary workspace, locates the first
// embedded markup document, parses it into polygon records, normalizes the
// CRS to the default datum, and repairs minor geometric invalidities.
// An archive with zero usable polygons returns an empty collection, not an
// error.
func Load(archivePath string, opts Options) (*geo.Collection, error) {
	if opts.MarkupExt == "" {
		opts.MarkupExt = DefaultOptions().MarkupExt
	}

	workspace, err := os.MkdirTemp("", "floodviz-kmz-")
	if err != nil {
		return nil, fmt.Errorf("kmz: temp workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := extractArchive(archivePath, workspace); err != nil {
		return nil, err
	}

	markupPath, err := findMarkup(workspace, opts.MarkupExt)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(markupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}

	collection, err := parseMarkup(data)
	if err != nil {
		return nil, err
	}

	dropped := filterPolygonal(collection)
	if dropped > 0 {
		slog.Debug("dropped non-polygonal records", "count", dropped)
	}

	if err := geo.NormalizeCRS(collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableMarkup, err)
	}

	before := collection.Len()
	collection = geo.RepairCollection(collection)
	if n := before - collection.Len(); n > 0 {
		slog.Warn("dropped records invalid after repair", "count", n)
	}
	if collection.Len() == 0 {
		slog.Warn("archive produced an empty collection", "archive", archivePath)
	}
	return collection, nil
}

// extractArchive unpacks a zip archive into dst, rejecting member paths
// that would escape it.
func extractArchive(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			continue
		}
		target := filepath.Join(dst, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrArchive, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrArchive, err)
		}
		if err := copyMember(f, target); err != nil {
			return err
		}
	}
	return nil
}

func copyMember(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	defer rc.Close()
	w, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	defer w.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return nil
}

// findMarkup walks the workspace and returns the first file whose name ends
// in ext (case-insensitive). If multiple exist the first in walk order wins.
func findMarkup(root, ext string) (string, error) {
	ext = strings.ToLower(ext)
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ext) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrArchive, err)
	}
	if found == "" {
		return "", ErrNoMarkup
	}
	return found, nil
}

// filterPolygonal drops records with nil geometry or a type outside
// {Polygon, MultiPolygon}, returning the number removed.
func filterPolygonal(c *geo.Collection) int {
	kept := c.Records[:0]
	dropped := 0
	for _, rec := range c.Records {
		if len(rec.Polygons()) == 0 {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	c.Records = kept
	return dropped
}
