// ABOUTME: Volume rooted in an afero filesystem
// ABOUTME: Creates recordings, opens sources and lists music by extension
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ErrNoMusic is returned by Resolve when the directory holds no matching file
var ErrNoMusic = errors.New("no music files found")

// Volume is a directory tree on an afero filesystem. Paths passed to its
// methods are slash separated and relative to the root; a leading slash is
// allowed.
type Volume struct {
	fs afero.Fs
}

// NewVolume roots a volume at root inside fsys. An empty root uses fsys as is.
func NewVolume(fsys afero.Fs, root string) *Volume {
	if root != "" && root != "/" {
		fsys = afero.NewBasePathFs(fsys, root)
	}
	return &Volume{fs: fsys}
}

// NewOSVolume roots a volume at a host directory, creating it if needed
func NewOSVolume(root string) (*Volume, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return NewVolume(osfs, root), nil
}

// Fs returns the underlying filesystem
func (v *Volume) Fs() afero.Fs {
	return v.fs
}

func clean(name string) string {
	return path.Clean("/" + name)
}

// Create opens name for writing, truncating an existing file and creating
// parent directories.
func (v *Volume) Create(name string) (afero.File, error) {
	name = clean(name)
	if err := v.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	f, err := v.fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return f, nil
}

// Open opens name for reading
func (v *Volume) Open(name string) (afero.File, error) {
	f, err := v.fs.Open(clean(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// OpenSource opens name as a byte source that is exhausted at end of file
func (v *Volume) OpenSource(name string) (*FileSource, error) {
	f, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return &FileSource{file: f, size: info.Size()}, nil
}

// Exists reports whether name is a regular file
func (v *Volume) Exists(name string) bool {
	info, err := v.fs.Stat(clean(name))
	return err == nil && info.Mode().IsRegular()
}

// List returns the files in dir whose extension matches ext
// (case-insensitive), sorted by name. Hidden files are skipped.
func (v *Volume) List(dir, ext string) ([]string, error) {
	dir = clean(dir)
	entries, err := afero.ReadDir(v.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Mode().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ext != "" && !strings.EqualFold(path.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, path.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// Resolve returns dir/name if it exists, otherwise the first file in dir
// with extension ext.
func (v *Volume) Resolve(dir, name, ext string) (string, error) {
	if name != "" {
		candidate := path.Join(clean(dir), name)
		if v.Exists(candidate) {
			return candidate, nil
		}
	}

	names, err := v.List(dir, ext)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in %s with extension %s", ErrNoMusic, clean(dir), ext)
	}
	return names[0], nil
}
