package bme280

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CSVWriter emits one row per quantity per reading, string fields quoted:
//
//	<unix seconds.micro>;"<location>";"BME280";"<quantity>";<value>
type CSVWriter struct {
	w io.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Start writes every reading received until readings is closed.
func (cw *CSVWriter) Start(readings <-chan Reading) error {
	for reading := range readings {
		if err := cw.WriteReading(reading); err != nil {
			return err
		}
	}
	return nil
}

func (cw *CSVWriter) WriteReading(r Reading) error {
	ts := fmt.Sprintf("%d.%06d", r.Timestamp/1e6, r.Timestamp%1e6)
	var b strings.Builder
	for _, q := range []struct {
		name  string
		value float64
	}{
		{"temperature", r.Temperature},
		{"pressure", r.Pressure},
		{"humidity", r.Humidity},
	} {
		fields := []string{ts, quoteField(r.Location), quoteField(readingType), quoteField(q.name), strconv.FormatFloat(q.value, 'f', 6, 64)}
		b.WriteString(strings.Join(fields, ";"))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(cw.w, b.String())
	return errors.Wrap(err, "error writing CSV")
}

// quoteField always quotes s, doubling embedded quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
