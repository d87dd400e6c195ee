package archives

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies a failure while creating or extracting an archive.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindNotFound means a source path or an entry's filesystem target
	// is missing.
	ErrorKindNotFound
	// ErrorKindAccessDenied means a read, write, or directory listing was
	// refused.
	ErrorKindAccessDenied
	// ErrorKindInvalidPath means a path is malformed or unsafe, such as a
	// symlink cycle or an entry name escaping the extraction root.
	ErrorKindInvalidPath
	// ErrorKindIOFailure is a generic I/O error during read, write, or
	// compression.
	ErrorKindIOFailure
	// ErrorKindCorruptArchive means the container is structurally broken or
	// an entry's checksum doesn't match its content.
	ErrorKindCorruptArchive
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNotFound:
		return "not found"
	case ErrorKindAccessDenied:
		return "access denied"
	case ErrorKindInvalidPath:
		return "invalid path"
	case ErrorKindIOFailure:
		return "io failure"
	case ErrorKindCorruptArchive:
		return "corrupt archive"
	}
	return "unknown"
}

// Error is a failure attributed to a single path. Multiple entry failures
// within one operation are aggregated with hashicorp/go-multierror and each
// member remains addressable with errors.As.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// classifyError maps a filesystem error onto the archive error taxonomy.
func classifyError(path string, err error) *Error {
	var archiveErr *Error
	if errors.As(err, &archiveErr) {
		return archiveErr
	}

	kind := ErrorKindIOFailure
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrorKindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ErrorKindAccessDenied
	}
	return newError(kind, path, err)
}
