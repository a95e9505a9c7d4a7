// Package router moves processed images into the found or empty folder.
package router

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
)

type Router struct {
	foundDir   string
	emptyDir   string
	sourceRoot string
}

func New(foundDir, emptyDir, sourceRoot string) *Router {
	return &Router{
		foundDir:   foundDir,
		emptyDir:   emptyDir,
		sourceRoot: sourceRoot,
	}
}

// Destination replaces the source root portion of source with the found or
// empty folder. The file name, and any sub-path below the root, is kept.
// A relative output folder keeps whatever precedes the source root in source.
func (r *Router) Destination(source string, verdict bool) (string, error) {
	target := r.emptyDir
	if verdict {
		target = r.foundDir
	}

	src := filepath.Clean(source)
	root := filepath.Clean(r.sourceRoot)
	sep := string(filepath.Separator)

	var prefix, rest string
	switch {
	case root == ".":
		if filepath.IsAbs(src) {
			return "", errs.Routing(source, "", errs.ErrOutsideSourceRoot)
		}
		rest = src
	case strings.HasPrefix(src, root+sep) || (root == sep && strings.HasPrefix(src, sep)):
		rest = strings.TrimPrefix(strings.TrimPrefix(src, root), sep)
	default:
		i := strings.LastIndex(src, sep+root+sep)
		if i < 0 {
			return "", errs.Routing(source, "", errs.ErrOutsideSourceRoot)
		}
		prefix = src[:i+1]
		rest = src[i+len(root)+2:]
	}

	if filepath.IsAbs(target) {
		return filepath.Join(target, rest), nil
	}
	return filepath.Join(prefix, target, rest), nil
}

// Route moves source to its destination and returns the destination path.
// The destination folder must already exist; an existing file with the same
// name is replaced.
func (r *Router) Route(source string, verdict bool) (string, error) {
	dest, err := r.Destination(source, verdict)
	if err != nil {
		return "", err
	}
	if err := requireDir(filepath.Dir(dest)); err != nil {
		return "", errs.Routing(source, dest, err)
	}
	if err := move(source, dest); err != nil {
		return "", errs.Routing(source, dest, err)
	}
	return dest, nil
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errs.ErrDestinationMissing, dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", errs.ErrDestinationMissing, dir)
	}
	return nil
}

// move renames source onto dest, copying across filesystems when a rename
// is not possible.
func move(source, dest string) error {
	err := os.Rename(source, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyThenRemove(source, dest)
}

func copyThenRemove(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return err
	}
	return os.Remove(source)
}

// Provision creates the output folders. It is a setup step run once before a
// batch, never done implicitly by Route.
func Provision(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("provision %s: %w", d, err)
		}
	}
	return nil
}
