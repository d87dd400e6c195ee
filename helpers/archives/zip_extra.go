package archives

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"io/fs"
	"os"
	"strings"
	"time"
)

// ZIP version-made-by host values and the minimum extraction version.
const (
	creatorUnix  = 3
	zipVersion20 = 20
)

// Unix mode bits as stored in the high 16 bits of the external attributes
// field, per the Info-ZIP convention.
const (
	unixIFMT  = 0xf000
	unixIFDIR = 0x4000
	unixIFREG = 0x8000
	unixIFLNK = 0xa000

	unixISUID = 0x800
	unixISGID = 0x400
	unixISVTX = 0x200
)

// MS-DOS attribute bits mirrored in the low byte for cross-tool
// compatibility.
const (
	msdosReadOnly = 0x01
	msdosDir      = 0x10
)

// encodeExternalAttrs packs a file mode into the external attributes field:
// Unix type and permission bits in the high 16 bits, DOS directory and
// read-only mirrors in the low byte.
func encodeExternalAttrs(mode fs.FileMode) uint32 {
	unixMode := uint32(mode.Perm())

	switch {
	case mode.IsDir():
		unixMode |= unixIFDIR
	case mode&fs.ModeSymlink != 0:
		unixMode |= unixIFLNK
	default:
		unixMode |= unixIFREG
	}

	if mode&fs.ModeSetuid != 0 {
		unixMode |= unixISUID
	}
	if mode&fs.ModeSetgid != 0 {
		unixMode |= unixISGID
	}
	if mode&fs.ModeSticky != 0 {
		unixMode |= unixISVTX
	}

	attrs := unixMode << 16
	if mode.IsDir() {
		attrs |= msdosDir
	}
	if mode.Perm()&0o200 == 0 {
		attrs |= msdosReadOnly
	}
	return attrs
}

// decodeEntryMode recovers the file mode of an archive entry. Entries written
// by non-Unix tools carry no mode bits and fall back to 0644 for files and
// 0755 for directories.
func decodeEntryMode(fh *zip.FileHeader) fs.FileMode {
	isDir := strings.HasSuffix(fh.Name, "/") || fh.ExternalAttrs&msdosDir != 0

	if fh.CreatorVersion>>8 == creatorUnix {
		if unixMode := fh.ExternalAttrs >> 16; unixMode != 0 {
			return unixModeToFileMode(unixMode)
		}
	}

	if isDir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func unixModeToFileMode(unixMode uint32) fs.FileMode {
	mode := fs.FileMode(unixMode & 0o777)

	switch unixMode & unixIFMT {
	case unixIFDIR:
		mode |= fs.ModeDir
	case unixIFLNK:
		mode |= fs.ModeSymlink
	}

	if unixMode&unixISUID != 0 {
		mode |= fs.ModeSetuid
	}
	if unixMode&unixISGID != 0 {
		mode |= fs.ModeSetgid
	}
	if unixMode&unixISVTX != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}

// Extra field tags written alongside each entry: Info-ZIP Unix UID/GID and
// the extended timestamp.
const (
	zipUIDGidFieldType    = 0x7875
	zipTimestampFieldType = 0x5455
)

type ZipExtraField struct {
	Type uint16
	Size uint16
}

type ZipUIDGidField struct {
	Version uint8
	UIDSize uint8
	UID     uint32
	GIDSize uint8
	GID     uint32
}

type ZipTimestampField struct {
	Flags   uint8
	ModTime uint32
}

func createZipUIDGidField(w *bytes.Buffer, fi os.FileInfo) error {
	uid, gid, ok := fileOwner(fi)
	if !ok {
		return nil
	}

	uidGidField := ZipUIDGidField{1, 4, uid, 4, gid}
	uidGidFieldType := ZipExtraField{
		Type: zipUIDGidFieldType,
		Size: uint16(binary.Size(&uidGidField)),
	}

	err := binary.Write(w, binary.LittleEndian, &uidGidFieldType)
	if err == nil {
		err = binary.Write(w, binary.LittleEndian, &uidGidField)
	}
	return err
}

func createZipTimestampField(w *bytes.Buffer, fi os.FileInfo) error {
	timestampField := ZipTimestampField{
		Flags:   1,
		ModTime: uint32(fi.ModTime().Unix()),
	}
	timestampFieldType := ZipExtraField{
		Type: zipTimestampFieldType,
		Size: uint16(binary.Size(&timestampField)),
	}

	err := binary.Write(w, binary.LittleEndian, &timestampFieldType)
	if err == nil {
		err = binary.Write(w, binary.LittleEndian, &timestampField)
	}
	return err
}

// createZipExtra encodes the Unix owner and modification time of a file as
// ZIP extra fields.
func createZipExtra(fi os.FileInfo) []byte {
	var buf bytes.Buffer
	err := createZipUIDGidField(&buf, fi)
	if err == nil {
		err = createZipTimestampField(&buf, fi)
	}
	if err == nil {
		return buf.Bytes()
	}
	return nil
}

func readZipExtraField(r *bytes.Reader) (field ZipExtraField, data *bytes.Reader, err error) {
	err = binary.Read(r, binary.LittleEndian, &field)
	if err != nil {
		return
	}

	raw := make([]byte, field.Size)
	_, err = r.Read(raw)
	if err != nil {
		return
	}

	data = bytes.NewReader(raw)
	return
}

func processZipUIDGidField(data *bytes.Reader, file string) error {
	var field ZipUIDGidField
	if data.Len() < binary.Size(&field) {
		return nil
	}
	err := binary.Read(data, binary.LittleEndian, &field)
	if err != nil {
		return err
	}
	if field.Version != 1 || field.UIDSize != 4 || field.GIDSize != 4 {
		return nil
	}

	return lchown(file, int(field.UID), int(field.GID))
}

func processZipTimestampField(data *bytes.Reader, file string, mode fs.FileMode) error {
	var field ZipTimestampField
	if data.Len() < binary.Size(&field) {
		return nil
	}
	err := binary.Read(data, binary.LittleEndian, &field)
	if err != nil {
		return err
	}
	if field.Flags&1 == 0 {
		return nil
	}

	// Lutimes is not portable, symlink timestamps are left alone.
	if mode&fs.ModeSymlink != 0 {
		return nil
	}

	modTime := time.Unix(int64(field.ModTime), 0)
	return os.Chtimes(file, modTime, modTime)
}

// processZipExtra restores the metadata stored by createZipExtra onto the
// extracted file. Ownership changes are attempted only when running as a
// user allowed to make them; refusal is not an extraction failure.
func processZipExtra(fh *zip.FileHeader, file string) error {
	if len(fh.Extra) == 0 {
		return nil
	}

	mode := decodeEntryMode(fh)
	r := bytes.NewReader(fh.Extra)
	for r.Len() > 0 {
		field, data, err := readZipExtraField(r)
		if err != nil {
			return err
		}

		switch field.Type {
		case zipUIDGidFieldType:
			err = processZipUIDGidField(data, file)
			if os.IsPermission(err) {
				err = nil
			}
		case zipTimestampFieldType:
			err = processZipTimestampField(data, file, mode)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
