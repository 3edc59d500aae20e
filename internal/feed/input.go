package feed

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrNoInput is returned when a feed source holds no files at all.
var ErrNoInput = errors.New("feed contains no files")

// Input is a named-member byte-stream source: a directory, a zip archive or
// anything else that can list files and open them by name.
type Input interface {
	// Members returns the member names, sorted.
	Members() []string
	// Open returns the decompressed content of a member.
	Open(name string) (io.ReadCloser, error)
	Close() error
}

// Compressed members are exposed under their name without the suffix.
const (
	gzipSuffix = ".gz"
	zstdSuffix = ".zst"
)

func logicalName(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{gzipSuffix, zstdSuffix} {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// decompress wraps rc according to the physical member name.
func decompress(physical string, rc io.ReadCloser) (io.ReadCloser, error) {
	lower := strings.ToLower(physical)
	switch {
	case strings.HasSuffix(lower, gzipSuffix):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("open gzip member %s: %w", physical, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case strings.HasSuffix(lower, zstdSuffix):
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("open zstd member %s: %w", physical, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	default:
		return rc, nil
	}
}

// stackedReader closes a decompressor and the stream beneath it.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// memberIndex maps logical member names to physical ones.
type memberIndex map[string]string

func (m memberIndex) add(physical string) {
	logical := logicalName(physical)
	if _, exists := m[logical]; !exists || logical == physical {
		m[logical] = physical
	}
}

func (m memberIndex) names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirectoryInput reads the regular files at the top level of a directory.
type DirectoryInput struct {
	dir     string
	members memberIndex
}

// NewDirectoryInput lists dir.
func NewDirectoryInput(dir string) (*DirectoryInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read feed directory: %w", err)
	}

	members := make(memberIndex)
	for _, e := range entries {
		if e.Type().IsRegular() {
			members.add(e.Name())
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoInput)
	}
	return &DirectoryInput{dir: dir, members: members}, nil
}

func (d *DirectoryInput) Members() []string { return d.members.names() }

func (d *DirectoryInput) Open(name string) (io.ReadCloser, error) {
	physical, ok := d.members[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	f, err := os.Open(filepath.Join(d.dir, physical))
	if err != nil {
		return nil, err
	}
	return decompress(physical, f)
}

func (d *DirectoryInput) Close() error { return nil }

// ZipInput reads the files at the root of a zip archive. Files in
// sub-directories are ignored.
type ZipInput struct {
	reader  *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	members memberIndex
}

// NewZipInput opens the archive at path.
func NewZipInput(path string) (*ZipInput, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open feed archive: %w", err)
	}
	in, err := newZipInput(&rc.Reader, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return in, nil
}

// NewZipReaderInput reads an archive held in r, such as an uploaded body
// spooled to a temporary file.
func NewZipReaderInput(r io.ReaderAt, size int64) (*ZipInput, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read feed archive: %w", err)
	}
	return newZipInput(zr, nil)
}

func newZipInput(zr *zip.Reader, closer io.Closer) (*ZipInput, error) {
	in := &ZipInput{
		reader:  zr,
		closer:  closer,
		files:   make(map[string]*zip.File),
		members: make(memberIndex),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.Contains(strings.TrimSuffix(f.Name, "/"), "/") {
			continue
		}
		name := path.Base(f.Name)
		in.files[name] = f
		in.members.add(name)
	}
	if len(in.members) == 0 {
		return nil, ErrNoInput
	}
	return in, nil
}

func (z *ZipInput) Members() []string { return z.members.names() }

func (z *ZipInput) Open(name string) (io.ReadCloser, error) {
	physical, ok := z.members[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	rc, err := z.files[physical].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", physical, err)
	}
	return decompress(physical, rc)
}

func (z *ZipInput) Close() error {
	if z.closer == nil {
		return nil
	}
	return z.closer.Close()
}
