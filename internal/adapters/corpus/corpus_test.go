package corpus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/trajectory/internal/adapters/corpus"
	. "github.com/smartystreets/goconvey/convey"
)

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, r *corpus.Reader, path string) []corpus.Line {
	t.Helper()
	var out []corpus.Line
	err := r.Each(context.Background(), path, func(l corpus.Line) error {
		l.Data = append([]byte(nil), l.Data...)
		out = append(out, l)
		return nil
	})
	if err != nil {
		t.Fatalf("each %s: %v", path, err)
	}
	return out
}

func TestDiscover(t *testing.T) {
	Convey("Given a data directory with mixed files", t, func() {
		dir := t.TempDir()
		for _, name := range []string{"history_b.jsonl.gz", "history_a.jsonl", "notes.txt"} {
			So(os.WriteFile(filepath.Join(dir, name), nil, 0o600), ShouldBeNil)
		}
		So(os.Mkdir(filepath.Join(dir, "history_dir.jsonl"), 0o700), ShouldBeNil)

		Convey("When the pattern matches both plain and compressed files", func() {
			files, err := corpus.Discover(dir, "history_*.jsonl*")

			Convey("Then regular files are returned in name order", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(filepath.Base(files[0]), ShouldEqual, "history_a.jsonl")
				So(filepath.Base(files[1]), ShouldEqual, "history_b.jsonl.gz")
			})
		})

		Convey("When nothing matches", func() {
			_, err := corpus.Discover(dir, "missing_*.jsonl.gz")

			Convey("Then ErrNoInput is returned", func() {
				So(errors.Is(err, corpus.ErrNoInput), ShouldBeTrue)
			})
		})
	})
}

func TestReaderEach(t *testing.T) {
	Convey("Given a gzip file with blank lines and no trailing newline", t, func() {
		path := filepath.Join(t.TempDir(), "a.jsonl.gz")
		writeGzip(t, path, "{\"id\":\"1\"}\n\n   \n{\"id\":\"2\"}\r\n{\"id\":\"3\"}")
		lines := collect(t, corpus.NewReader(0), path)

		Convey("Then every non-blank line is streamed with its number", func() {
			So(lines, ShouldHaveLength, 3)
			So(string(lines[0].Data), ShouldEqual, `{"id":"1"}`)
			So(string(lines[1].Data), ShouldEqual, `{"id":"2"}`)
			So(lines[1].Number, ShouldEqual, 4)
			So(string(lines[2].Data), ShouldEqual, `{"id":"3"}`)
			So(lines[2].File, ShouldEqual, "a.jsonl.gz")
		})
	})

	Convey("Given a plain file with an over-long line", t, func() {
		path := filepath.Join(t.TempDir(), "b.jsonl")
		long := strings.Repeat("x", 300<<10)
		So(os.WriteFile(path, []byte("{}\n"+long+"\n{\"id\":\"z\"}\n"), 0o600), ShouldBeNil)
		lines := collect(t, corpus.NewReader(1024), path)

		Convey("Then the long line is reported and reading goes on", func() {
			So(lines, ShouldHaveLength, 3)
			So(errors.Is(lines[1].Err, corpus.ErrLineTooLong), ShouldBeTrue)
			So(lines[1].Data, ShouldBeEmpty)
			So(string(lines[2].Data), ShouldEqual, `{"id":"z"}`)
		})
	})

	Convey("Given a file that is not valid gzip", t, func() {
		path := filepath.Join(t.TempDir(), "c.jsonl.gz")
		So(os.WriteFile(path, []byte("plain text"), 0o600), ShouldBeNil)
		err := corpus.NewReader(0).Each(context.Background(), path, func(corpus.Line) error { return nil })

		Convey("Then the file fails as a whole", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a callback that stops early", t, func() {
		path := filepath.Join(t.TempDir(), "d.jsonl")
		So(os.WriteFile(path, []byte("{}\n{}\n{}\n"), 0o600), ShouldBeNil)
		stop := errors.New("stop")
		calls := 0
		err := corpus.NewReader(0).Each(context.Background(), path, func(corpus.Line) error {
			calls++
			return stop
		})

		Convey("Then its error is returned after one call", func() {
			So(errors.Is(err, stop), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})
}
