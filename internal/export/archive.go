package export

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
)

// ArchiveMember is one file of a zip archive.
type ArchiveMember struct {
	Name string
	Data []byte
}

// archiveTime is stamped on every member so identical input yields
// identical archives.
var archiveTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteArchive writes members to w as a zip archive. compression is
// "deflate" (the default), "zstd" or "store".
func WriteArchive(w io.Writer, members []ArchiveMember, compression string) error {
	if len(members) == 0 {
		return fmt.Errorf("%w: empty archive", ErrNoEntries)
	}

	zw := zip.NewWriter(w)
	var method uint16
	switch compression {
	case "", "deflate":
		method = zip.Deflate
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.BestCompression)
		})
	case "zstd":
		method = zstd.ZipMethodWinZip
		zw.RegisterCompressor(method, zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedBetterCompression)))
	case "store":
		method = zip.Store
	default:
		return fmt.Errorf("unknown compression %q", compression)
	}

	for _, m := range members {
		hdr := &zip.FileHeader{Name: m.Name, Method: method, Modified: archiveTime}
		f, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("adding %s: %w", m.Name, err)
		}
		if _, err := f.Write(m.Data); err != nil {
			return fmt.Errorf("writing %s: %w", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// OpenArchive returns a reader for data that understands every method
// WriteArchive produces.
func OpenArchive(data io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return zr, nil
}
