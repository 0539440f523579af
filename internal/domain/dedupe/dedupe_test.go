package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/trajectory/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(16))

		Convey("When a person id is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "person_001")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When the same id appears again", func() {
			d.SeenAndRecord(ctx, "person_001")
			seen := d.SeenAndRecord(ctx, "person_001")

			Convey("Then it is reported as a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When an id is unrecorded after a failed write", func() {
			d.SeenAndRecord(ctx, "person_002")
			d.Unrecord(ctx, "person_002")
			d.Unrecord(ctx, "never-seen")

			Convey("Then a later occurrence is accepted", func() {
				So(d.Size(), ShouldEqual, int64(0))
				So(d.SeenAndRecord(ctx, "person_002"), ShouldBeFalse)
			})
		})

		Convey("When many ids are recorded concurrently", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 1000; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("person_%04d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is new exactly once", func() {
				So(fresh, ShouldEqual, 1000)
				So(d.Size(), ShouldEqual, int64(1000))
			})
		})
	})
}
