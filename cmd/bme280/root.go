package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bme280"
)

var (
	logLevel   string
	busName    string
	address    uint16
	serialPort string
	baudRate   int
	timeout    time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bme280",
		Short:         "Read a BME280 temperature, pressure and humidity sensor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error)")
	f.StringVar(&busName, "bus", "", "I²C bus name, empty for the first one")
	f.Uint16Var(&address, "addr", bme280.Address, "I²C slave address")
	f.StringVar(&serialPort, "serial", "", "serial port of an I²C bridge, used instead of --bus")
	f.IntVar(&baudRate, "baud", 115200, "baud rate of the I²C bridge")
	f.DurationVar(&timeout, "timeout", bme280.DefaultOpts.Timeout, "bound on every status poll")

	cmd.AddCommand(
		NewReadCommand(),
		NewServeCommand(),
		NewPortsCommand(),
	)

	return cmd
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	return nil
}

func openDevice() (*bme280.Dev, error) {
	opts := &bme280.Opts{
		Address: address,
		Timeout: timeout,
		Logger:  logrus.StandardLogger(),
	}
	if serialPort != "" {
		return bme280.OpenSerial(serialPort, baudRate, opts)
	}
	return bme280.Open(busName, opts)
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
