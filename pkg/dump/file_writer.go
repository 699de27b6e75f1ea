package dump

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type fileWriter struct {
	file *os.File
	buf  *bufio.Writer
}

// NewFileWriter creates path (and its directory) and returns a buffered
// writer over it. Close flushes the buffer before closing the file.
func NewFileWriter(path string) (io.WriteCloser, error) {
	err := createDir(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &SinkError{Err: errors.Wrapf(err, "unable to create file %s", path)}
	}

	writer := &fileWriter{
		file: f,
		buf:  bufio.NewWriterSize(f, 1<<20),
	}

	return writer, nil
}

func (w *fileWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *fileWriter) Close() error {
	errFl := w.buf.Flush()
	errCl := w.file.Close()

	if errFl != nil {
		return errors.Wrap(errFl, "flushing dump file failed")
	}

	return errCl
}

func createDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		if !os.IsExist(err) {
			return &SinkError{Err: errors.Wrapf(err, "unable to create directory %s", dir)}
		}
	}

	return nil
}
