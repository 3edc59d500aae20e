package csvtable

// streaming.go provides the readers that sit between a raw feed member and
// the CSV tokenizer:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with U+FFFD
//   - CountingReader: tracks raw bytes consumed for progress logging
//
// Use WrapForStreaming to apply all of them in the right order.

import (
	"io"
	"unicode/utf8"
)

const sanitizerChunk = 32 * 1024

var replacementChar = []byte(string(utf8.RuneError))

// UTF8Sanitizer wraps an io.Reader and replaces every byte that is not part
// of a valid UTF-8 sequence with the replacement character U+FFFD.
//
// Multi-byte sequences split across reads are carried over to the next read,
// so memory use is bounded by the chunk size regardless of input length.
type UTF8Sanitizer struct {
	reader io.Reader

	buf   []byte
	carry []byte
	out   []byte
	err   error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader: r,
		buf:    make([]byte, sanitizerChunk),
		carry:  make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	n, err := s.reader.Read(s.buf)
	s.err = err
	atEOF := err != nil

	data := s.buf[:n]
	if len(s.carry) > 0 {
		data = append(append(make([]byte, 0, len(s.carry)+n), s.carry...), data...)
		s.carry = s.carry[:0]
	}

	// Fast path: nothing to rewrite.
	if isAllASCII(data) {
		s.out = append(s.out[:0], data...)
		return
	}

	out := s.out[:0]
	for i := 0; i < len(data); {
		b := data[i]
		if b < utf8.RuneSelf {
			out = append(out, b)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.carry = append(s.carry, data[i:]...)
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, replacementChar...)
		} else {
			out = append(out, data[i:i+size]...)
		}
		i += size
	}
	s.out = out
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	head    []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
			n = 0
		}
		r.head = append([]byte(nil), buf[:n]...)
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming counts raw bytes, strips the BOM, then sanitizes UTF-8.
// The returned CountingReader reports bytes consumed from r.
func WrapForStreaming(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counter)), counter
}
