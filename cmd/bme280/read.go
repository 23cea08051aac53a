package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bme280"
)

func NewReadCommand() *cobra.Command {
	var (
		interval time.Duration
		settle   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "read <location>",
		Short: "Poll the sensor and print CSV rows to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
			defer stop()

			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			// Give the sensor time to settle before the first row.
			if !sleepCtx(ctx, settle) {
				return nil
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			readings := make(chan bme280.Reading)
			errc := make(chan error, 1)
			go func() {
				defer close(readings)
				errc <- pollSensor(ctx, dev, args[0], interval, readings)
			}()

			if err := bme280.NewCSVWriter(os.Stdout).Start(readings); err != nil {
				cancel()
				<-errc
				return err
			}
			if err := <-errc; err != nil {
				return err
			}
			logrus.Info("bye!")
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "time between samples")
	cmd.Flags().DurationVar(&settle, "settle", 10*time.Second, "wait before the first sample")

	return cmd
}

// pollSensor refreshes dev every interval and sends the readings until ctx
// is done.
func pollSensor(ctx context.Context, dev *bme280.Dev, location string, interval time.Duration, readings chan<- bme280.Reading) error {
	for {
		if err := dev.Refresh(); err != nil {
			return err
		}
		r := bme280.Reading{
			Location:  location,
			Timestamp: time.Now().UnixMicro(),
			Sample:    dev.Sample(),
		}
		select {
		case readings <- r:
		case <-ctx.Done():
			return nil
		}
		if !sleepCtx(ctx, interval) {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
