package bme280

import (
	"bytes"
	"strings"
	"testing"
)

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	err := w.WriteReading(Reading{
		Location:  "attic",
		Timestamp: 1700000000123456,
		Sample:    Sample{Temperature: 25.08247793081682, Pressure: 100653.25814481472, Humidity: 38.275054276373446},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `1700000000.123456;"attic";"BME280";"temperature";25.082478` + "\n" +
		`1700000000.123456;"attic";"BME280";"pressure";100653.258145` + "\n" +
		`1700000000.123456;"attic";"BME280";"humidity";38.275054` + "\n"
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestCSVWriterQuotesLocation(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).WriteReading(Reading{Location: `shed "b"; left`, Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	first, _, _ := strings.Cut(buf.String(), "\n")
	want := `0.000001;"shed ""b""; left";"BME280";"temperature";0.000000`
	if first != want {
		t.Fatalf("got %s, want %s", first, want)
	}
}

func TestCSVWriterStart(t *testing.T) {
	var buf bytes.Buffer
	readings := make(chan Reading, 2)
	readings <- Reading{Location: "a", Timestamp: 1}
	readings <- Reading{Location: "b", Timestamp: 2}
	close(readings)

	if err := NewCSVWriter(&buf).Start(readings); err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(buf.Bytes(), []byte("\n")); n != 6 {
		t.Fatalf("wrote %d rows, want 6", n)
	}
}
