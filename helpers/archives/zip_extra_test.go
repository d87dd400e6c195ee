//go:build !integration

package archives

import (
	"archive/zip"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalAttrsRoundTrip(t *testing.T) {
	modes := []fs.FileMode{
		0o644,
		0o600,
		0o444,
		fs.ModeDir | 0o755,
		fs.ModeDir | 0o700,
		fs.ModeSymlink | 0o777,
		fs.ModeSetuid | 0o755,
		fs.ModeDir | fs.ModeSetgid | 0o775,
		fs.ModeSticky | 0o777,
	}

	for _, mode := range modes {
		fh := &zip.FileHeader{
			Name:           "entry",
			CreatorVersion: creatorUnix<<8 | zipVersion20,
			ExternalAttrs:  encodeExternalAttrs(mode),
		}
		if mode.IsDir() {
			fh.Name += "/"
		}

		assert.Equal(t, mode, decodeEntryMode(fh), "mode %v", mode)
	}
}

func TestEncodeExternalAttrsDOSBits(t *testing.T) {
	assert.NotZero(t, encodeExternalAttrs(fs.ModeDir|0o755)&msdosDir)
	assert.Zero(t, encodeExternalAttrs(0o644)&msdosDir)
	assert.NotZero(t, encodeExternalAttrs(0o444)&msdosReadOnly)
	assert.Zero(t, encodeExternalAttrs(0o644)&msdosReadOnly)
}

func TestDecodeEntryModeFallback(t *testing.T) {
	// archives authored by non-Unix tools carry no mode bits
	assert.Equal(t, fs.FileMode(0o644), decodeEntryMode(&zip.FileHeader{Name: "file.txt"}))
	assert.Equal(t, fs.ModeDir|0o755, decodeEntryMode(&zip.FileHeader{Name: "dir/"}))
	assert.Equal(t,
		fs.ModeDir|0o755,
		decodeEntryMode(&zip.FileHeader{Name: "dir", ExternalAttrs: msdosDir}))
}

func TestCreateZipExtra(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test")
	require.NoError(t, os.WriteFile(testFile, nil, 0o644))

	fi, err := os.Stat(testFile)
	require.NoError(t, err)

	data := createZipExtra(fi)
	size := binary.Size(&ZipExtraField{})*2 +
		binary.Size(&ZipUIDGidField{}) +
		binary.Size(&ZipTimestampField{})

	// windows only supports the timestamp extra field
	if runtime.GOOS == "windows" {
		size = binary.Size(&ZipExtraField{}) +
			binary.Size(&ZipTimestampField{})
	}

	assert.Len(t, data, size)
}

func TestProcessZipExtra(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test")
	require.NoError(t, os.WriteFile(testFile, nil, 0o644))

	fi, err := os.Stat(testFile)
	require.NoError(t, err)

	fh := &zip.FileHeader{Name: "test"}
	fh.SetMode(fi.Mode())
	fh.Extra = createZipExtra(fi)

	// disturb the modification time, then restore it from the extra fields
	disturbed := fi.ModTime().Add(-time.Hour)
	require.NoError(t, os.Chtimes(testFile, disturbed, disturbed))

	require.NoError(t, processZipExtra(fh, testFile))

	fi2, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Truncate(time.Second).Equal(fi2.ModTime().Truncate(time.Second)))
}
