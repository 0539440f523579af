package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithDurationBuckets([]float64{1, 2}),
			)
			registry := manager.Registry()

			Convey("Then collectors are registered on a private registry", func() {
				So(registry, ShouldNotBeNil)
				manager.linesRead.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_lines_read_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When ingestion events are recorded", func() {
			before := testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues(ReasonDuplicate))
			RecordRecordSkipped(ReasonDuplicate)
			RecordRecordSkipped(ReasonDuplicate)
			RecordRowsWritten("jobs", 3)

			Convey("Then the counters move by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues(ReasonDuplicate)), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.rowsWritten.WithLabelValues("jobs")), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When metric entry gauges are set", func() {
			UpdateMetricEntries("role_transitions", "computed", 420)
			UpdateMetricEntries("role_transitions", "exported", 200)

			Convey("Then each stage keeps its own value", func() {
				So(testutil.ToFloat64(globalManager.metricEntries.WithLabelValues("role_transitions", "computed")), ShouldEqual, 420)
				So(testutil.ToFloat64(globalManager.metricEntries.WithLabelValues("role_transitions", "exported")), ShouldEqual, 200)
			})
		})

		Convey("When the registry is written to a textfile", func() {
			ObservePhase(PhaseIngest, 1500*time.Millisecond)
			RecordLineRead()
			RecordFileRead()
			RecordRecordLoaded()
			RecordPhaseFailure(PhaseExport)
			MarkRunSucceeded(time.Unix(1700000000, 0))
			path := filepath.Join(t.TempDir(), "trajectory.prom")
			err := WriteTextfile(path)

			Convey("Then the file holds the exposition text", func() {
				So(err, ShouldBeNil)
				raw, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "trajectory_pipeline_phase_duration_seconds")
				So(string(raw), ShouldContainSubstring, "trajectory_pipeline_last_success_unixtime 1.7e+09")
			})
		})

		Convey("When the textfile directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then a wrapped error is returned", func() {
				So(errors.Is(err, ErrWriteTextfile), ShouldBeTrue)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		previous := globalManager
		defer func() { globalManager = previous }()

		Configure(WithNamespace("careers"), WithSubsystem("batch"), WithDurationBuckets([]float64{1, 10}))
		RecordLineRead()
		ObservePhase(PhaseAnalyze, 2*time.Second)

		Convey("Then the package functions record on the new registry with the new names", func() {
			So(globalManager.Registry(), ShouldNotEqual, previous.Registry())
			So(testutil.ToFloat64(globalManager.linesRead), ShouldEqual, 1)

			families, err := globalManager.Registry().Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
				if f.GetName() == "careers_batch_phase_duration_seconds" {
					So(f.GetMetric()[0].GetHistogram().GetBucket(), ShouldHaveLength, 2)
				}
			}
			So(names["careers_batch_lines_read_total"], ShouldBeTrue)
			So(names["careers_batch_phase_duration_seconds"], ShouldBeTrue)
			So(names["trajectory_pipeline_lines_read_total"], ShouldBeFalse)
		})
	})
}
