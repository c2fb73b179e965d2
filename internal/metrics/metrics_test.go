package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRecording(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		Convey("When frames complete", func() {
			m.FrameDone(5 * time.Millisecond)
			m.FrameDone(20 * time.Millisecond)
			m.FramePanicked()

			Convey("Then counters advance", func() {
				So(testutil.ToFloat64(m.frames), ShouldEqual, 2)
				So(testutil.ToFloat64(m.framePanics), ShouldEqual, 1)
				So(testutil.CollectAndCount(m.frameDuration), ShouldEqual, 1)
			})
		})

		Convey("When globe gauges are set", func() {
			m.MarkersVisible(4)
			m.MarkersVisible(3)
			m.TweensActive(2)
			m.DragStarted()
			m.SweepStarted()
			m.SweepStarted()

			Convey("Then the latest values are reported", func() {
				So(testutil.ToFloat64(m.visible), ShouldEqual, 3)
				So(testutil.ToFloat64(m.tweens), ShouldEqual, 2)
				So(testutil.ToFloat64(m.drags), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sweeps), ShouldEqual, 2)
			})
		})

		Convey("When the handler is scraped", func() {
			m.FrameDone(time.Millisecond)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			Convey("Then it exposes namespaced series", func() {
				So(rec.Code, ShouldEqual, 200)
				So(strings.Contains(rec.Body.String(), "test_globe_frames_total 1"), ShouldBeTrue)
			})
		})
	})
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	m.FrameDone(time.Millisecond)
	m.FramePanicked()
	m.MarkersVisible(1)
	m.TweensActive(1)
	m.DragStarted()
	m.SweepStarted()
}

func TestOptionsIgnoreEmptyValues(t *testing.T) {
	m := NewManager(WithNamespace(""), WithSubsystem(""), WithFrameBuckets(nil), WithRegistry(nil))
	if m.namespace != "forekaster" || m.subsystem != "globe" {
		t.Errorf("namespace/subsystem = %s/%s", m.namespace, m.subsystem)
	}
	if m.Registry() == nil {
		t.Error("expected private registry")
	}
}
