package bme280

import (
	"path/filepath"
	"testing"
)

func newTestRecorder(t *testing.T, max int) *Recorder {
	t.Helper()
	r, err := NewRecorder(filepath.Join(t.TempDir(), "readings.db"), max)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func reading(ts int64, temp float64) Reading {
	return Reading{
		Type:      readingType,
		Timestamp: ts,
		Sample:    Sample{Temperature: temp, Pressure: 100000 + temp, Humidity: 40},
	}
}

func TestRecorderHistory(t *testing.T) {
	r := newTestRecorder(t, 10)
	for i := int64(1); i <= 5; i++ {
		if err := r.AddReading(reading(i*1000, float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.GetHistoricalData(2000, 4000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3", len(got))
	}
	for i, want := range []Reading{reading(2000, 2), reading(3000, 3), reading(4000, 4)} {
		if got[i] != want {
			t.Errorf("reading %d = %+v, want %+v", i, got[i], want)
		}
	}

	none, err := r.GetHistoricalData(9000, 9999)
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("empty range = %#v, want empty slice", none)
	}
}

func TestRecorderRecentWraps(t *testing.T) {
	r := newTestRecorder(t, 3)
	if got := r.Recent(); len(got) != 0 {
		t.Fatalf("Recent() on empty recorder = %+v", got)
	}
	for i := int64(1); i <= 5; i++ {
		if err := r.AddReading(reading(i, float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	got := r.Recent()
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3", len(got))
	}
	for i, ts := range []int64{3, 4, 5} {
		if got[i].Timestamp != ts {
			t.Errorf("reading %d timestamp = %d, want %d", i, got[i].Timestamp, ts)
		}
	}
}

func TestRecorderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	r, err := NewRecorder(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AddReading(reading(42, 21.5)); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r, err = NewRecorder(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := r.GetHistoricalData(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != reading(42, 21.5) {
		t.Fatalf("got %+v", got)
	}
}
