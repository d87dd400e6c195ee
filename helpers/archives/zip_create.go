package archives

import (
	"archive/zip"
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"
)

// entryResult is the outcome of compressing one collected entry: a finalized
// header plus the payload bytes ready to be copied verbatim into the
// container.
type entryResult struct {
	header *zip.FileHeader
	data   []byte
	err    *Error
}

func newEntryHeader(e collectedEntry) *zip.FileHeader {
	fh := &zip.FileHeader{
		Name:     e.name,
		Method:   zip.Deflate,
		Modified: e.info.ModTime(),
	}
	// Set EFS flag to indicate that filenames and comments are UTF-8 encoded
	fh.Flags |= 0x800
	fh.CreatorVersion = creatorUnix<<8 | zipVersion20
	fh.ReaderVersion = zipVersion20
	fh.ExternalAttrs = encodeExternalAttrs(e.info.Mode())
	fh.Extra = createZipExtra(e.info)
	return fh
}

// deflateContent compresses content, reporting false when compression does
// not shrink the payload.
func deflateContent(content []byte, level int) ([]byte, bool) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, false
	}
	if _, err = fw.Write(content); err != nil {
		return nil, false
	}
	if err = fw.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(content) {
		return nil, false
	}
	return buf.Bytes(), true
}

// compressEntry reads and compresses one entry in memory. It only produces
// the finalized record; the actual container write happens on the single
// owning writer.
func compressEntry(e collectedEntry, opts *Options) *entryResult {
	fh := newEntryHeader(e)

	if e.kind == kindDirectory {
		fh.Method = zip.Store
		return &entryResult{header: fh}
	}

	content, err := os.ReadFile(e.sourcePath)
	if err != nil {
		return &entryResult{err: classifyError(e.sourcePath, err)}
	}

	fh.UncompressedSize64 = uint64(len(content))
	fh.CRC32 = crc32.ChecksumIEEE(content)

	if opts.method() != Stored && len(content) > 0 {
		if compressed, ok := deflateContent(content, opts.flateLevel()); ok {
			fh.CompressedSize64 = uint64(len(compressed))
			return &entryResult{header: fh, data: compressed}
		}
	}

	fh.Method = zip.Store
	fh.CompressedSize64 = uint64(len(content))
	return &entryResult{header: fh, data: content}
}

func writeEntry(archive *zip.Writer, result *entryResult) error {
	w, err := archive.CreateRaw(result.header)
	if err == nil && len(result.data) > 0 {
		_, err = w.Write(result.data)
	}
	if err != nil {
		return newError(ErrorKindIOFailure, result.header.Name, err)
	}
	return nil
}

// CreateZipArchive walks paths and streams them as a ZIP archive into w.
// Compression and hashing run on a bounded worker pool; a single writer
// drains the completion slots strictly in collection order, so the container
// layout does not depend on which worker finishes first.
//
// Per-entry failures do not stop the remaining entries unless FailFast is
// set; the operation then fails with an aggregate error listing every failed
// path. Callers writing to a file should use CreateZipFile, which also
// removes the partial archive on failure.
func CreateZipArchive(w io.Writer, paths []string, opts *Options) error {
	c := newCollector(opts)
	if err := c.collect(paths); err != nil {
		return err
	}

	entries := c.entries
	failed := c.failed

	results := make([]chan *entryResult, len(entries))
	for i := range results {
		results[i] = make(chan *entryResult, 1)
	}

	var pool errgroup.Group
	pool.SetLimit(opts.concurrency())
	defer func() { _ = pool.Wait() }()

	for i, entry := range entries {
		i, entry := i, entry
		pool.Go(func() error {
			results[i] <- compressEntry(entry, opts)
			return nil
		})
	}

	archive := zip.NewWriter(w)
	for i := range entries {
		result := <-results[i]
		if result.err != nil {
			if opts.failFast() {
				return result.err
			}
			failed = multierror.Append(failed, result.err)
			continue
		}

		if err := writeEntry(archive, result); err != nil {
			return err
		}
	}

	if err := archive.Close(); err != nil {
		return newError(ErrorKindIOFailure, "", err)
	}
	return failed.ErrorOrNil()
}

// CreateZipFile archives paths into the file fileName. No partial archive is
// left behind: on any failure the destination file is removed.
func CreateZipFile(fileName string, paths []string, opts *Options) error {
	if err := checkDestination(fileName, paths); err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return classifyError(fileName, err)
	}

	err = CreateZipArchive(file, paths, opts)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = classifyError(fileName, closeErr)
	}
	if err != nil {
		_ = os.Remove(fileName)
		return err
	}
	return nil
}

func checkDestination(fileName string, paths []string) error {
	dst, err := filepath.Abs(fileName)
	if err != nil {
		return classifyError(fileName, err)
	}

	for _, path := range paths {
		src, err := filepath.Abs(path)
		if err == nil && src == dst {
			return newError(ErrorKindInvalidPath, fileName, errors.New("destination is one of the sources"))
		}
	}
	return nil
}
