package normalize_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/trajectory/internal/domain/model"
	"github.com/okian/trajectory/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func decode(t *testing.T, line string) normalize.Object {
	t.Helper()
	obj, err := normalize.Decode([]byte(line))
	if err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return obj
}

func TestNormalizePerson(t *testing.T) {
	n := normalize.New(normalize.WithClock(func() time.Time { return fixedNow }))

	Convey("Given a record with nested location details", t, func() {
		obj := decode(t, `{"id":"p1","created_at":"2024-01-05","employment_status":"employed","connections":512,
			"country":"FR","location_details":{"country":"US","locality":"Austin"}}`)
		rec, err := n.Normalize(obj)

		Convey("Then nested values win over top-level ones", func() {
			So(err, ShouldBeNil)
			So(rec.Person.ID, ShouldEqual, "p1")
			So(*rec.Person.Country, ShouldEqual, "US")
			So(*rec.Person.City, ShouldEqual, "Austin")
			So(*rec.Person.Connections, ShouldEqual, 512)
			So(*rec.Person.EmploymentStatus, ShouldEqual, "employed")
			So(rec.Person.CreatedAt.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})

	Convey("Given a record with only a top-level country", t, func() {
		obj := decode(t, `{"id":"p2","country":"DE","location":{"country":"UK","city":"London"}}`)
		rec, err := n.Normalize(obj)

		Convey("Then country falls back to the top-level field and city stays null", func() {
			So(err, ShouldBeNil)
			So(*rec.Person.Country, ShouldEqual, "DE")
			So(rec.Person.City, ShouldBeNil)
		})
	})

	Convey("Given a record with no location at all", t, func() {
		rec, err := n.Normalize(decode(t, `{"id":"p3"}`))

		Convey("Then location fields are null and lists are empty", func() {
			So(err, ShouldBeNil)
			So(rec.Person.Country, ShouldBeNil)
			So(rec.Person.City, ShouldBeNil)
			So(rec.Jobs, ShouldBeEmpty)
			So(rec.Education, ShouldBeEmpty)
			So(rec.Changes.PersonID, ShouldEqual, "p3")
		})
	})

	Convey("Given records without a usable identity", t, func() {
		for _, line := range []string{`{"jobs":[]}`, `{"id":""}`, `{"id":"   "}`, `{"id":null}`, `{"id":true}`} {
			_, err := n.Normalize(decode(t, line))

			So(err, ShouldNotBeNil)
			So(errors.Is(err, normalize.ErrMalformedRecord), ShouldBeTrue)
			var mre *normalize.MalformedRecordError
			So(errors.As(err, &mre), ShouldBeTrue)
			So(mre.Field, ShouldEqual, "id")
		}
	})

	Convey("Given a numeric identity", t, func() {
		rec, err := n.Normalize(decode(t, `{"id":12345}`))

		Convey("Then it is kept in its decimal form", func() {
			So(err, ShouldBeNil)
			So(rec.Person.ID, ShouldEqual, "12345")
		})
	})
}

func TestNormalizeJobs(t *testing.T) {
	n := normalize.New(normalize.WithClock(func() time.Time { return fixedNow }))

	Convey("Given a job with a nested company object", t, func() {
		rec, err := n.Normalize(decode(t, `{"id":"p1","jobs":[{"title":" Senior Software Engineer ","function":"Engineering",
			"level":"Senior","company":{"name":"Acme","industry":"Technology"},
			"started_at":"2020-01-01","ended_at":"2022-07-01"}]}`))

		Convey("Then company fields, level and duration resolve", func() {
			So(err, ShouldBeNil)
			So(rec.Jobs, ShouldHaveLength, 1)
			j := rec.Jobs[0]
			So(j.PersonID, ShouldEqual, "p1")
			So(*j.Title, ShouldEqual, "Senior Software Engineer")
			So(*j.Function, ShouldEqual, "Engineering")
			So(*j.CompanyName, ShouldEqual, "Acme")
			So(*j.Industry, ShouldEqual, "Technology")
			So(j.Level, ShouldEqual, model.LevelSenior)
			So(*j.DurationMonths, ShouldEqual, 30)
			So(*j.TenureMonths, ShouldEqual, 30)
		})
	})

	Convey("Given a job with flat company fields", t, func() {
		rec, err := n.Normalize(decode(t, `{"id":"p1","jobs":[{"title":"Analyst","company":"Acme",
			"company_name":"Acme","company_industry":"Finance","industry":"Finance"}]}`))

		Convey("Then company name and industry are null, not a fallback", func() {
			So(err, ShouldBeNil)
			So(rec.Jobs[0].CompanyName, ShouldBeNil)
			So(rec.Jobs[0].Industry, ShouldBeNil)
		})
	})

	Convey("Given a job without a company object", t, func() {
		rec, err := n.Normalize(decode(t, `{"id":"p1","jobs":[{"title":"Analyst"}]}`))

		Convey("Then the record still normalizes", func() {
			So(err, ShouldBeNil)
			So(rec.Jobs[0].CompanyName, ShouldBeNil)
			So(rec.Jobs[0].Industry, ShouldBeNil)
		})
	})

	Convey("Given supplied duration and tenure", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","jobs":[{"started_at":"2020-01-01","ended_at":"2021-01-01",
			"duration":7,"company_tenure":0}]}`))

		Convey("Then the supplied integers are used as-is", func() {
			So(*rec.Jobs[0].DurationMonths, ShouldEqual, 7)
			So(*rec.Jobs[0].TenureMonths, ShouldEqual, 0)
		})
	})

	Convey("Given an open-ended job", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","jobs":[{"started_at":"2025-01-20","ended_at":null}]}`))

		Convey("Then duration runs to now", func() {
			So(rec.Jobs[0].End, ShouldBeNil)
			So(*rec.Jobs[0].DurationMonths, ShouldEqual, 14)
		})
	})

	Convey("Given a job without a start timestamp", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","jobs":[{"title":"X","ended_at":"2021-01-01"}]}`))

		Convey("Then duration and tenure are null", func() {
			So(rec.Jobs[0].Start, ShouldBeNil)
			So(rec.Jobs[0].DurationMonths, ShouldBeNil)
			So(rec.Jobs[0].TenureMonths, ShouldBeNil)
		})
	})

	Convey("Given level signals in different fields", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","jobs":[
			{"title":"Engineer","seniority":"Director"},
			{"title":"VP of Sales"},
			{"title":"Engineer"},
			{"level":"cto","seniority":"junior"},
			"not an object"]}`))

		Convey("Then level, seniority and title are tried in order", func() {
			So(rec.Jobs, ShouldHaveLength, 4)
			So(rec.Jobs[0].Level, ShouldEqual, model.LevelDirector)
			So(rec.Jobs[1].Level, ShouldEqual, model.LevelVP)
			So(rec.Jobs[2].Level, ShouldEqual, model.LevelUnknown)
			So(rec.Jobs[3].Level, ShouldEqual, model.LevelCSuite)
			So(rec.Jobs[3].Title, ShouldBeNil)
		})
	})
}

func TestNormalizeEducationAndChanges(t *testing.T) {
	n := normalize.New()

	Convey("Given education entries using both field aliases", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","education":[
			{"school":"MIT","degree":"BS","field":"Computer Science","started_at":"2010-09-01","ended_at":"2014-05-01"},
			{"school":"Stanford","major":"Business"},
			{"school":"Nowhere"}]}`))

		Convey("Then field resolves from field then major", func() {
			So(rec.Education, ShouldHaveLength, 3)
			So(*rec.Education[0].Field, ShouldEqual, "Computer Science")
			So(*rec.Education[0].Degree, ShouldEqual, "BS")
			So(*rec.Education[1].Field, ShouldEqual, "Business")
			So(rec.Education[2].Field, ShouldBeNil)
		})
	})

	Convey("Given change timestamps nested and flat", t, func() {
		rec, _ := n.Normalize(decode(t, `{"id":"p1","changes":{"title_change_detected_at":"2024-02-01"},
			"title_change_detected_at":"1999-01-01","info_change_detected_at":"2024-03-01T10:00:00Z"}`))

		Convey("Then nested values win and flat ones fill gaps", func() {
			So(rec.Changes.TitleChangedAt.Year(), ShouldEqual, 2024)
			So(rec.Changes.CompanyChangedAt, ShouldBeNil)
			So(rec.Changes.InfoChangedAt.Hour(), ShouldEqual, 10)
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given raw corpus lines", t, func() {
		Convey("Then only single JSON objects decode", func() {
			for _, bad := range []string{"NOT JSON", "[1,2]", "null", `{"id":"a"} {"id":"b"}`, `{"id":`} {
				_, err := normalize.Decode([]byte(bad))
				So(errors.Is(err, normalize.ErrMalformedLine), ShouldBeTrue)
			}
			obj, err := normalize.Decode([]byte(`  {"id":"a"}  `))
			So(err, ShouldBeNil)
			So(obj["id"], ShouldEqual, "a")
		})
	})
}

func TestTimeHelpers(t *testing.T) {
	Convey("Given timestamp strings in corpus shapes", t, func() {
		Convey("Then each layout parses to UTC", func() {
			for _, s := range []string{"2021", "2021-06", "2021-06-15", "2021-06-15T08:30:00", "2021-06-15 08:30:00", "2021-06-15T08:30:00+02:00"} {
				ts, ok := normalize.ParseTime(s)
				So(ok, ShouldBeTrue)
				So(ts.Year(), ShouldEqual, 2021)
				So(ts.Location(), ShouldEqual, time.UTC)
			}
			_, ok := normalize.ParseTime("June 2021")
			So(ok, ShouldBeFalse)
		})

		Convey("Then months use calendar arithmetic floored at zero", func() {
			a := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
			So(model.MonthsBetween(a, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 24)
			So(model.MonthsBetween(a, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 1)
			So(model.MonthsBetween(a, time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 0)
		})
	})
}
