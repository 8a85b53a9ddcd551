// Command sf2-telemetryd hosts a sensor.DataSource and orientation.History
// behind an HTTP/SSE telemetry surface. It wires a synthetic IMU driver by
// default (package driver/mock) — a real hardware link is an external
// collaborator outside this module's scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kauailabs/sf2go/pkg/driver/mock"
	"github.com/kauailabs/sf2go/pkg/log"
	"github.com/kauailabs/sf2go/pkg/orientation"
	"github.com/kauailabs/sf2go/pkg/sensor"
	"github.com/kauailabs/sf2go/pkg/telemetry"
)

// Version is overridden at build-time.
var Version = "dev"

func main() {
	host := flag.String("host", "0.0.0.0", "bind address for the telemetry HTTP server")
	port := flag.Int("port", 11113, "TCP port for the telemetry HTTP server")
	interval := flag.Duration("interval", 10*time.Millisecond, "sample interval for the driver feed")
	yawRate := flag.Float64("yaw-rate", 45.0, "mock driver yaw rate, degrees per second")
	histCap := flag.Int("history", 300, "orientation samples to retain")
	showVer := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sf2-telemetryd %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		fmt.Printf("sf2-telemetryd %s\n", Version)
		os.Exit(0)
	}

	addr := fmt.Sprintf("%s:%d", *host, *port)
	log.Logger = log.Logger.Level(zerolog.InfoLevel).With().Str("version", Version).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := mock.New(*yawRate)
	source := sensor.New(driver)

	hist, err := orientation.New(source, *histCap)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("constructing orientation history")
	}
	defer hist.Close()

	srv := telemetry.New(source, hist)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return driver.Run(gctx, *interval)
	})
	group.Go(func() error {
		return srv.Run(gctx, addr)
	})

	if err := group.Wait(); err != nil && gctx.Err() == nil {
		log.Logger.Fatal().Err(err).Msg("fatal")
	}
	log.Logger.Info().Msg("shutdown complete")
}
