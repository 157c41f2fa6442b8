package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IsGzip reports whether path names a gzip-compressed file.
func IsGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

// SiblingPath returns the path of a companion file next to path, with tag
// inserted before the extension: "out/routes.json.gz" and "missing" give
// "out/routes.missing.json.gz".
func SiblingPath(path, tag string) string {
	gz := ""
	if IsGzip(path) {
		gz = path[len(path)-3:]
		path = path[:len(path)-3]
	}
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + "." + tag + ext + gz
}

// fileWriter writes to a temporary file next to its destination and renames
// it into place on Commit, so readers never see a partial export.
type fileWriter struct {
	path string
	tmp  *os.File
	gz   *gzip.Writer
	buf  *bufio.Writer
}

func createFile(path string) (*fileWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", path, err)
	}

	fw := &fileWriter{path: path, tmp: tmp}
	var w io.Writer = tmp
	if IsGzip(path) {
		fw.gz = gzip.NewWriter(tmp)
		w = fw.gz
	}
	fw.buf = bufio.NewWriter(w)
	return fw, nil
}

func (fw *fileWriter) Write(p []byte) (int, error) {
	return fw.buf.Write(p)
}

// Commit flushes, closes and renames the file into place.
func (fw *fileWriter) Commit() error {
	if err := fw.buf.Flush(); err != nil {
		fw.Abort()
		return fmt.Errorf("writing %s: %w", fw.path, err)
	}
	if fw.gz != nil {
		if err := fw.gz.Close(); err != nil {
			fw.Abort()
			return fmt.Errorf("compressing %s: %w", fw.path, err)
		}
	}
	if err := fw.tmp.Chmod(0o644); err != nil {
		fw.Abort()
		return fmt.Errorf("setting permissions on %s: %w", fw.path, err)
	}
	if err := fw.tmp.Close(); err != nil {
		_ = os.Remove(fw.tmp.Name())
		return fmt.Errorf("closing %s: %w", fw.path, err)
	}
	if err := os.Rename(fw.tmp.Name(), fw.path); err != nil {
		_ = os.Remove(fw.tmp.Name())
		return fmt.Errorf("replacing %s: %w", fw.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (fw *fileWriter) Abort() {
	_ = fw.tmp.Close()
	_ = os.Remove(fw.tmp.Name())
}

// writeFile creates path atomically with the content produced by write.
func writeFile(path string, write func(w io.Writer) error) error {
	fw, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(fw); err != nil {
		fw.Abort()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fw.Commit()
}

// removeIfExists deletes path, ignoring a missing file.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale %s: %w", path, err)
	}
	return nil
}

// NewReader wraps r in a gzip reader when name ends in .gz. The returned
// closer releases the decompressor only; closing r stays with the caller.
func NewReader(r io.Reader, name string) (io.ReadCloser, error) {
	if !IsGzip(name) {
		return io.NopCloser(r), nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream %s: %w", name, err)
	}
	return zr, nil
}

// Open opens a local file for reading, decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &stackedCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
