package bme280

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/pkg/errors"
)

// InfluxSink writes readings as points to an InfluxDB bucket.
type InfluxSink struct {
	measure string
	close   func()
	write   func(ctx context.Context, measure string, tags map[string]string, fields map[string]interface{}, ts time.Time) error
}

// NewInfluxSink connects to the server at url. bucket is "database" or
// "database/retention" for 1.x servers; token is "user:password" there.
func NewInfluxSink(url, token, bucket, measure string) *InfluxSink {
	if measure == "" {
		measure = "environment"
	}
	client := influxdb2.NewClient(url, token)
	writer := client.WriteAPIBlocking("", bucket)
	return &InfluxSink{
		measure: measure,
		close:   client.Close,
		write: func(ctx context.Context, measure string, tags map[string]string, fields map[string]interface{}, ts time.Time) error {
			return writer.WritePoint(ctx, influxdb2.NewPoint(measure, tags, fields, ts))
		},
	}
}

func (s *InfluxSink) Write(ctx context.Context, r Reading) error {
	tags := map[string]string{
		"sensor": readingType,
	}
	if r.Location != "" {
		tags["location"] = r.Location
	}
	fields := map[string]interface{}{
		"temperature": r.Temperature,
		"pressure":    r.Pressure,
		"humidity":    r.Humidity,
	}
	err := s.write(ctx, s.measure, tags, fields, time.UnixMicro(r.Timestamp))
	return errors.Wrap(err, "influx write failed")
}

func (s *InfluxSink) Close() {
	if s.close != nil {
		s.close()
	}
}
