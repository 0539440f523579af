// Package corpus discovers and streams the line-delimited JSON input files.
// Files ending in .gz are decompressed on the fly; nothing is materialized
// beyond the current line.
package corpus

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// DefaultMaxLineBytes bounds a single record line.
const DefaultMaxLineBytes = 16 << 20

const readBufferSize = 256 << 10

// Line is one non-blank line of an input file. Err is set, and Data is nil,
// when the line could not be read whole.
type Line struct {
	File   string
	Number int
	Data   []byte
	Err    error
}

// Discover returns the files in dir matching pattern, sorted by name.
func Discover(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoInput, pattern, dir)
	}
	sort.Strings(files)
	return files, nil
}

// Reader streams the lines of one file.
type Reader struct {
	maxLineBytes int
}

// NewReader creates a Reader. maxLineBytes <= 0 uses DefaultMaxLineBytes.
func NewReader(maxLineBytes int) *Reader {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Reader{maxLineBytes: maxLineBytes}
}

// Each calls fn for every non-blank line of path. Data is only valid during
// the call. Over-long lines are reported through Line.Err and skipped. Each
// returns the first error from fn, from opening the file, or from the
// decompressor.
func (r *Reader) Each(ctx context.Context, path string, fn func(Line) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	name := filepath.Base(path)
	br := bufio.NewReaderSize(src, readBufferSize)
	var buf []byte
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, err := r.readLine(br, buf[:0])
		buf = line
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s line %d: %w", name, n, err)
		}
		switch {
		case tooLong:
			if ferr := fn(Line{File: name, Number: n, Err: ErrLineTooLong}); ferr != nil {
				return ferr
			}
		case len(bytes.TrimSpace(line)) > 0:
			if ferr := fn(Line{File: name, Number: n, Data: bytes.TrimSpace(line)}); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// readLine reads up to the next newline into buf. Past maxLineBytes it keeps
// consuming but stops buffering and reports tooLong.
func (r *Reader) readLine(br *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > r.maxLineBytes+1 {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, tooLong, err
	}
}
