package archives

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type entryKind int

const (
	kindFile entryKind = iota
	kindDirectory
)

// collectedEntry is one unit of archival work: a source path paired with the
// forward-slash archive name it will be stored under. Directory names carry a
// trailing slash.
type collectedEntry struct {
	sourcePath string
	name       string
	kind       entryKind
	info       fs.FileInfo
}

var errSymlinkCycle = errors.New("symlink cycle detected")

// collector walks the requested source paths and produces the ordered entry
// list written into the archive. Directory listings are read with os.ReadDir,
// which sorts entries, so the output is deterministic for a given filesystem
// snapshot. Per-source and per-directory failures are accumulated so the
// whole operation can report them at once; with FailFast the first failure
// aborts collection.
type collector struct {
	opts    *Options
	entries []collectedEntry
	failed  *multierror.Error

	// identities of directories on the current walk path, used for cycle
	// detection when following symlinks
	walking map[fileID]struct{}
}

func newCollector(opts *Options) *collector {
	return &collector{opts: opts, walking: make(map[fileID]struct{})}
}

// fail records a collection failure. The returned error is non-nil only when
// the whole collection should stop.
func (c *collector) fail(err *Error) error {
	if c.opts.failFast() {
		return err
	}
	c.failed = multierror.Append(c.failed, err)
	return nil
}

func (c *collector) isExcluded(name string) bool {
	name = strings.TrimSuffix(name, "/")
	for _, pattern := range c.opts.exclude() {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			logrus.Warningf("exclude pattern %q: %v", pattern, err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func (c *collector) add(sourcePath, name string, kind entryKind, info fs.FileInfo) {
	if kind == kindDirectory && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	c.entries = append(c.entries, collectedEntry{
		sourcePath: sourcePath,
		name:       name,
		kind:       kind,
		info:       info,
	})
}

func (c *collector) collect(paths []string) error {
	for _, path := range paths {
		if err := c.collectSource(path); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) collectSource(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return c.fail(classifyError(path, err))
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !c.opts.followSymlinks() {
			logrus.Warningln("Symlink skipped:", path)
			return nil
		}
		info, err = os.Stat(path)
		if err != nil {
			return c.fail(classifyError(path, err))
		}
	}

	switch {
	case info.IsDir():
		// A source of ".", ".." or "/" has no archivable base name and
		// contributes its children without a top-level prefix; any other
		// directory is represented by its own entry so it survives even when
		// empty.
		prefix := filepath.Base(filepath.Clean(path))
		if prefix == "." || prefix == ".." || prefix == string(filepath.Separator) {
			prefix = ""
		} else {
			c.add(path, prefix, kindDirectory, info)
		}
		return c.walkDir(path, prefix, info)

	case info.Mode().IsRegular():
		c.add(path, filepath.Base(path), kindFile, info)
		return nil

	default:
		// Pipes, sockets and devices cannot be represented in the archive.
		logrus.Warningln("File ignored:", path)
		return nil
	}
}

func (c *collector) walkDir(dir, prefix string, info fs.FileInfo) error {
	if c.opts.followSymlinks() {
		id, ok := fileIdentity(info)
		if ok {
			if _, seen := c.walking[id]; seen {
				return c.fail(newError(ErrorKindInvalidPath, dir, errSymlinkCycle))
			}
			c.walking[id] = struct{}{}
			defer delete(c.walking, id)
		}
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return c.fail(classifyError(dir, err))
	}

	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		name := de.Name()
		if prefix != "" {
			name = prefix + "/" + name
		}

		if c.isExcluded(name) {
			continue
		}

		if err := c.walkEntry(path, name, de); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) walkEntry(path, name string, de fs.DirEntry) error {
	if de.Type()&fs.ModeSymlink != 0 {
		if !c.opts.followSymlinks() {
			logrus.Warningln("Symlink skipped:", path)
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return c.fail(classifyError(path, err))
		}
		if info.IsDir() {
			c.add(path, name, kindDirectory, info)
			return c.walkDir(path, name, info)
		}
		if info.Mode().IsRegular() {
			c.add(path, name, kindFile, info)
		}
		return nil
	}

	info, err := de.Info()
	if err != nil {
		return c.fail(classifyError(path, err))
	}

	switch {
	case de.IsDir():
		c.add(path, name, kindDirectory, info)
		return c.walkDir(path, name, info)
	case de.Type().IsRegular():
		c.add(path, name, kindFile, info)
	default:
		logrus.Warningln("File ignored:", path)
	}
	return nil
}
