// Package imagesource lists the images of a source folder and decodes them.
package imagesource

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Supported are the MIME types Decode can read.
var Supported = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// List returns the decodable images directly inside root, sorted
// lexicographically. Sub-folders (the output folders among them when they
// live below root) and symlinks are not followed, so every listed image maps
// onto one of the two flat output folders.
func List(log *slog.Logger, root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list images under %s: %w", root, err)
	}

	var paths []string
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if e.IsDir() {
			log.Debug("Skipping sub-folder", "path", path)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}

		mt, err := mimetype.DetectFile(path)
		if err != nil {
			log.Debug("Cannot sniff file", "path", path, "error", err)
			continue
		}
		if !mimetype.EqualsAny(mt.String(), Supported...) {
			log.Debug("Skipping non image file", "path", path, "mime", mt.String())
			continue
		}
		paths = append(paths, path)
	}

	slices.Sort(paths)
	return paths, nil
}

// Decode reads the image at path. Failures are ImageProcessingErrors.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Processing(path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errs.Processing(path, fmt.Errorf("decode image: %w", err))
	}
	return img, nil
}
