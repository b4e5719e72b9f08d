package compress

import (
	"fmt"
	"io"
	"strings"
)

// Supported archive types
const (
	Zip = "zip"
	Tar = "tar"
)

// ParseType normalizes an archive type, defaulting to zip
func ParseType(s string) string {
	if strings.EqualFold(s, Tar) {
		return Tar
	}
	return Zip
}

// NewReader unwraps the CSV file of an archive of the given type.
func NewReader(archiveType string, r io.ReadCloser) (io.ReadCloser, error) {
	switch archiveType {
	case Zip:
		return NewZipReader(r)
	case Tar:
		return NewTarReader(r)
	default:
		return nil, fmt.Errorf("unsupported archive type %q", archiveType)
	}
}

// NewWriter wraps w so that written data lands in fileName inside an archive.
func NewWriter(archiveType string, w io.Writer, fileName string) (io.WriteCloser, error) {
	switch archiveType {
	case Zip:
		return NewZipWriter(w, fileName)
	case Tar:
		return NewTarWriter(w, fileName), nil
	default:
		return nil, fmt.Errorf("unsupported archive type %q", archiveType)
	}
}

func isCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}
