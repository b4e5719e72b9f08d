package compress

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"time"
)

// TarReader implements io.ReadCloser over the first CSV file of a TAR archive.
type TarReader struct {
	current io.Reader
	eof     bool
}

// NewTarReader creates a new TarReader positioned at the first CSV entry.
func NewTarReader(r io.ReadCloser) (*TarReader, error) {
	defer r.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	tr := tar.NewReader(bytes.NewReader(buf.Bytes()))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag == tar.TypeReg && isCSV(header.Name) {
			return &TarReader{current: tr}, nil
		}
	}

	return nil, errors.New("CSV file not found in the TAR archive")
}

func (t *TarReader) Read(p []byte) (int, error) {
	if t.eof {
		return 0, io.EOF
	}
	n, err := t.current.Read(p)
	if err == io.EOF {
		t.eof = true
	}
	return n, err
}

func (t *TarReader) Close() error {
	return nil
}

// TarWriter buffers everything written to it and emits a single-entry TAR
// archive on Close, since the entry size must be known up front.
type TarWriter struct {
	w        io.Writer
	fileName string
	buf      bytes.Buffer
}

func NewTarWriter(w io.Writer, fileName string) *TarWriter {
	return &TarWriter{w: w, fileName: fileName}
}

func (t *TarWriter) Write(p []byte) (int, error) {
	return t.buf.Write(p)
}

func (t *TarWriter) Close() error {
	tw := tar.NewWriter(t.w)
	header := &tar.Header{
		Name:    t.fileName,
		Mode:    0o644,
		Size:    int64(t.buf.Len()),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if _, err := tw.Write(t.buf.Bytes()); err != nil {
		return err
	}
	return tw.Close()
}
