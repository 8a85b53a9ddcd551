package telemetry

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kauailabs/sf2go/pkg/orientation"
	"github.com/kauailabs/sf2go/pkg/sensor"
)

type fakeDriver struct {
	connected bool
	cb        func(systemTS, sensorTS int64, raw sensor.Frame)
}

func (d *fakeDriver) OnSample(cb func(systemTS, sensorTS int64, raw sensor.Frame)) { d.cb = cb }
func (d *fakeDriver) Connected() bool                                             { return d.connected }
func (d *fakeDriver) Poll() (sensor.Frame, int64)                                 { return sensor.Frame{QuatW: 1}, 0 }
func (d *fakeDriver) ZeroYaw() bool                                               { return true }

func newTestServer(t *testing.T) (*Server, *fakeDriver) {
	t.Helper()
	driver := &fakeDriver{connected: true}
	source := sensor.New(driver)
	hist, err := orientation.New(source, 50)
	if err != nil {
		t.Fatalf("orientation.New: %v", err)
	}
	t.Cleanup(hist.Close)
	return New(source, hist), driver
}

func TestHandleOrientationReturnsServiceUnavailableWhenDisconnected(t *testing.T) {
	driver := &fakeDriver{connected: false}
	source := sensor.New(driver)
	hist, err := orientation.New(source, 10)
	if err != nil {
		t.Fatalf("orientation.New: %v", err)
	}
	defer hist.Close()
	s := New(source, hist)

	req := httptest.NewRequest(http.MethodGet, "/api/orientation", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestHandleOrientationReturnsCurrentSnapshot(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orientation", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snap orientationSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHandleHistoryDefaultsToCSV(t *testing.T) {
	s, driver := newTestServer(t)
	driver.cb(0, 1_000_000_000, sensor.Frame{QuatW: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV body: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("expected header + at least one row, got %d rows", len(rows))
	}
}

// The history round trips through CSV into a JSON array: this exercises
// that round trip end to end over HTTP.
func TestHandleHistoryJSONFormat(t *testing.T) {
	s, driver := newTestServer(t)
	driver.cb(0, 1_000_000_000, sensor.Frame{QuatW: 1})
	driver.cb(1, 2_000_000_000, sensor.Frame{QuatZ: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/history?format=json", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var records []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decoding JSON body: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records[0]["Timestamp"]; !ok {
		t.Errorf("record missing Timestamp field: %+v", records[0])
	}
}

func TestHandleSSESetsEventStreamHeaders(t *testing.T) {
	s, driver := newTestServer(t)
	driver.cb(0, 1_000_000_000, sensor.Frame{QuatW: 1})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	// The body is an unbounded live stream; read with a deadline rather
	// than blocking forever if no event arrives.
	type readResult struct {
		n   int
		err error
	}
	done := make(chan readResult, 1)
	buf := make([]byte, 256)
	go func() {
		n, err := resp.Body.Read(buf)
		done <- readResult{n, err}
	}()

	select {
	case r := <-done:
		if r.n == 0 && r.err == nil {
			t.Error("expected at least the initial snapshot event on connect")
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for the initial SSE snapshot")
	}
}
