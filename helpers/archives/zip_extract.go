package archives

import (
	"archive/zip"
	stdflate "compress/flate"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	errPathTraversal = errors.New("entry path escapes the destination directory")
	errUnsafeLink    = errors.New("symlink target escapes the destination directory")
)

// sanitizeExtractPath resolves an entry name to a path strictly inside dir,
// rejecting absolute names and names that lexically escape the destination.
func sanitizeExtractPath(dir, name string) (string, *Error) {
	local := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if local == "" || !filepath.IsLocal(local) {
		return "", newError(ErrorKindInvalidPath, name, errPathTraversal)
	}
	return filepath.Join(dir, local), nil
}

// classifyEntryError distinguishes damage to the container itself from plain
// filesystem trouble while writing the extracted entry.
func classifyEntryError(name string, err error) *Error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return classifyError(pathErr.Path, err)
	}

	if errors.Is(err, zip.ErrInsecurePath) {
		return newError(ErrorKindInvalidPath, name, err)
	}

	var corruptInput stdflate.CorruptInputError
	if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrAlgorithm) || errors.As(err, &corruptInput) {
		return newError(ErrorKindCorruptArchive, name, err)
	}
	return classifyError(name, err)
}

func extractZipDirectoryEntry(target string, mode fs.FileMode) *Error {
	// Keep the directory writable while children are extracted; the exact
	// stored mode is applied in the metadata pass.
	err := os.MkdirAll(target, mode.Perm()|0o700)
	if err != nil {
		return classifyError(target, err)
	}
	return nil
}

func extractZipSymlinkEntry(file *zip.File, target string) *Error {
	in, err := file.Open()
	if err != nil {
		return classifyEntryError(file.Name, err)
	}
	defer func() { _ = in.Close() }()

	link, err := io.ReadAll(in)
	if err != nil {
		return classifyEntryError(file.Name, err)
	}

	// A link pointing outside the destination would let later entries write
	// through it to arbitrary locations.
	linkTarget := filepath.FromSlash(string(link))
	if filepath.IsAbs(linkTarget) ||
		!filepath.IsLocal(filepath.Join(filepath.Dir(filepath.FromSlash(file.Name)), linkTarget)) {
		return newError(ErrorKindInvalidPath, file.Name, errUnsafeLink)
	}

	// Remove any previous file so the link creation cannot fail on an
	// existing name.
	_ = os.Remove(target)
	if err := os.Symlink(string(link), target); err != nil {
		return classifyError(target, err)
	}
	return nil
}

func extractZipFileEntry(file *zip.File, target string, mode fs.FileMode) *Error {
	in, err := file.Open()
	if err != nil {
		return classifyEntryError(file.Name, err)
	}
	defer func() { _ = in.Close() }()

	_ = os.Remove(target)
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return classifyError(target, err)
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// The checksum is only fully verified at EOF; drop whatever was
		// written for this entry rather than leave untrustworthy content.
		_ = os.Remove(target)
		return classifyEntryError(file.Name, err)
	}
	return nil
}

func extractZipEntry(file *zip.File, target string, mode fs.FileMode) *Error {
	if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
		return classifyError(target, err)
	}

	switch mode & fs.ModeType {
	case fs.ModeDir:
		return extractZipDirectoryEntry(target, mode)
	case fs.ModeSymlink:
		return extractZipSymlinkEntry(file, target)
	default:
		return extractZipFileEntry(file, target, mode)
	}
}

// ExtractZipArchive recreates the archived tree under dir. Entries are
// processed sequentially in stored order; any unsafe name or corrupt entry
// aborts the whole extraction, since a damaged archive cannot be trusted to
// continue. Files already extracted before an abort are not rolled back.
//
// Permissions and extra metadata are restored in a second pass so that
// restrictive directory modes don't block the extraction of their own
// children.
func ExtractZipArchive(archive *zip.Reader, dir string) error {
	for _, file := range archive.File {
		target, archiveErr := sanitizeExtractPath(dir, file.Name)
		if archiveErr != nil {
			return archiveErr
		}

		logrus.Debugln("Extracting:", file.Name)
		if archiveErr = extractZipEntry(file, target, decodeEntryMode(&file.FileHeader)); archiveErr != nil {
			return archiveErr
		}
	}

	for _, file := range archive.File {
		target, archiveErr := sanitizeExtractPath(dir, file.Name)
		if archiveErr != nil {
			return archiveErr
		}

		mode := decodeEntryMode(&file.FileHeader)
		if err := lchmod(target, mode); err != nil {
			return classifyError(target, err)
		}
		if err := processZipExtra(&file.FileHeader, target); err != nil {
			return classifyError(target, err)
		}
	}

	return nil
}

// ExtractZipFile extracts the archive at fileName into the directory dir,
// creating it if needed.
func ExtractZipFile(fileName, dir string) error {
	archive, err := zip.OpenReader(fileName)
	if err != nil {
		return classifyEntryError(fileName, err)
	}
	defer func() { _ = archive.Close() }()

	if err := os.MkdirAll(dir, 0o777); err != nil {
		return classifyError(dir, err)
	}

	return ExtractZipArchive(&archive.Reader, dir)
}
