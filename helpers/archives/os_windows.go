//go:build windows

package archives

import (
	"io/fs"
	"os"
)

type fileID struct {
	dev uint64
	ino uint64
}

func fileIdentity(info fs.FileInfo) (fileID, bool) {
	return fileID{}, false
}

func fileOwner(info fs.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}

func lchown(name string, uid, gid int) error {
	// Unix ownership has no meaning here.
	return nil
}

func lchmod(name string, mode os.FileMode) error {
	if mode&os.ModeSymlink != 0 {
		return nil
	}
	return os.Chmod(name, mode.Perm())
}
