package level_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/trajectory/internal/domain/level"
	"github.com/okian/trajectory/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultClassifier(t *testing.T) {
	Convey("Given the embedded keyword table", t, func() {
		c := level.Default()

		Convey("When classifying common level strings", func() {
			cases := map[string]model.Level{
				"Chief Technology Officer":   model.LevelCSuite,
				"CEO":                        model.LevelCSuite,
				"Vice  President, Sales":     model.LevelVP,
				"SVP Engineering":            model.LevelVP,
				"Senior Director of Product": model.LevelDirector,
				"Engineering Manager":        model.LevelManager,
				"Principal Engineer":         model.LevelStaff,
				"Tech Lead":                  model.LevelStaff,
				"Sr. Software Engineer":      model.LevelSenior,
				"senior":                     model.LevelSenior,
				"Junior Analyst":             model.LevelIC,
				"IC":                         model.LevelIC,
				"Entry":                      model.LevelIC,
			}

			Convey("Then each maps to its tier", func() {
				for raw, want := range cases {
					So(c.Classify(raw), ShouldEqual, want)
				}
			})
		})

		Convey("When rules overlap", func() {
			Convey("Then the earlier rule wins", func() {
				So(c.Classify("Senior Manager"), ShouldEqual, model.LevelManager)
				So(c.Classify("Director, Vice President"), ShouldEqual, model.LevelVP)
			})
		})

		Convey("When nothing matches", func() {
			Convey("Then the level is Unknown", func() {
				So(c.Classify(""), ShouldEqual, model.LevelUnknown)
				So(c.Classify("   "), ShouldEqual, model.LevelUnknown)
				So(c.Classify("Software Engineer"), ShouldEqual, model.LevelUnknown)
				So(c.Classify("Seniority"), ShouldEqual, model.LevelUnknown)
			})
		})

		Convey("Then the table carries a version", func() {
			So(c.Version(), ShouldEqual, 1)
		})
	})
}

func TestLoadRules(t *testing.T) {
	Convey("Given a custom keyword table on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "levels.yaml")

		Convey("When the table is valid", func() {
			So(os.WriteFile(path, []byte("version: 7\nrules:\n  - level: Staff\n    keywords: [architect]\n"), 0o600), ShouldBeNil)
			c, err := level.Load(ctx, path)

			Convey("Then its rules replace the defaults", func() {
				So(err, ShouldBeNil)
				So(c.Version(), ShouldEqual, 7)
				So(c.Classify("Solutions Architect"), ShouldEqual, model.LevelStaff)
				So(c.Classify("Senior Engineer"), ShouldEqual, model.LevelUnknown)
			})
		})

		Convey("When a rule names a level outside the vocabulary", func() {
			So(os.WriteFile(path, []byte("rules:\n  - level: Partner\n    keywords: [partner]\n"), 0o600), ShouldBeNil)
			_, err := level.Load(ctx, path)

			Convey("Then loading fails with ErrInvalidRules", func() {
				So(errors.Is(err, level.ErrInvalidRules), ShouldBeTrue)
			})
		})

		Convey("When a rule has no keywords", func() {
			So(os.WriteFile(path, []byte("rules:\n  - level: VP\n    keywords: []\n"), 0o600), ShouldBeNil)
			_, err := level.Load(ctx, path)

			Convey("Then loading fails", func() {
				So(errors.Is(err, level.ErrInvalidRules), ShouldBeTrue)
			})
		})

		Convey("When the path is empty", func() {
			c, err := level.Load(ctx, "")

			Convey("Then the embedded table is used", func() {
				So(err, ShouldBeNil)
				So(c.Classify("VP"), ShouldEqual, model.LevelVP)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := level.Load(ctx, filepath.Join(dir, "nope.yaml"))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
