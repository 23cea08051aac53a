package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bme280"
)

func NewServeCommand() *cobra.Command {
	var (
		listen        string
		dbPath        string
		location      string
		interval      time.Duration
		influxURL     string
		influxToken   string
		influxBucket  string
		influxMeasure string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the sensor, record readings and serve them over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			cfg := bme280.ServerConfig{
				Interval: interval,
				Location: location,
				Logger:   logrus.StandardLogger(),
			}

			if dbPath != "" {
				rec, err := bme280.NewRecorder(dbPath, 1000)
				if err != nil {
					return err
				}
				defer rec.Close()
				cfg.Recorder = rec
			}

			if influxURL != "" {
				sink := bme280.NewInfluxSink(influxURL, influxToken, influxBucket, influxMeasure)
				defer sink.Close()
				cfg.Sink = sink
				logrus.Infof("writing points to %s bucket %q", influxURL, influxBucket)
			}

			l, err := net.Listen("tcp", listen)
			if err != nil {
				return errors.Wrapf(err, "failed to listen on %s", listen)
			}

			err = bme280.NewServer(dev, cfg).Run(ctx, l)
			logrus.Info("shutting down")
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&listen, "listen", envOr("BME280_LISTEN", ":8080"), "HTTP listen address")
	f.StringVar(&dbPath, "db", envOr("BME280_DB", "readings.db"), "sqlite database, empty to disable recording")
	f.StringVar(&location, "location", envOr("BME280_LOCATION", ""), "location tag of the readings")
	f.DurationVar(&interval, "interval", 15*time.Second, "time between samples")
	f.StringVar(&influxURL, "influx-url", envOr("BME280_INFLUX_URL", ""), "InfluxDB URL, empty to disable")
	f.StringVar(&influxToken, "influx-token", envOr("BME280_INFLUX_TOKEN", ""), "InfluxDB token or user:password")
	f.StringVar(&influxBucket, "influx-bucket", envOr("BME280_INFLUX_BUCKET", "bme280"), "InfluxDB bucket or database/retention")
	f.StringVar(&influxMeasure, "influx-measure", envOr("BME280_INFLUX_MEASURE", "environment"), "InfluxDB measurement")

	return cmd
}
