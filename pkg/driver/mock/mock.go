// Package mock implements a synthetic sensor.Driver that generates smoothly
// rotating orientation frames at a fixed rate, standing in for a real IMU
// link (e.g. a navX board) during development and testing.
package mock

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kauailabs/sf2go/pkg/sensor"
)

// Driver is a synthetic sensor.Driver producing a quaternion that yaws
// continuously about the z axis at yawRateDegPerSec.
type Driver struct {
	yawRateDegPerSec float64
	boot             time.Time

	mu        sync.Mutex
	connected bool
	cb        func(systemTS, sensorTS int64, raw sensor.Frame)
	yawOffset float64
}

// New constructs a mock driver yawing at yawRateDegPerSec degrees per
// second.
func New(yawRateDegPerSec float64) *Driver {
	return &Driver{
		yawRateDegPerSec: yawRateDegPerSec,
		boot:             time.Now(),
		connected:        true,
	}
}

// OnSample registers cb as the driver's sample callback, replacing any
// previously registered callback. Passing nil deregisters it.
func (d *Driver) OnSample(cb func(systemTS, sensorTS int64, raw sensor.Frame)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

// Connected reports whether the driver is connected. The mock driver is
// always connected once constructed.
func (d *Driver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Poll returns the current synthetic frame and its sensor timestamp without
// waiting for the next scheduled callback.
func (d *Driver) Poll() (sensor.Frame, int64) {
	now := time.Now()
	return d.frameAt(now), now.Sub(d.boot).Nanoseconds()
}

// ZeroYaw rezeroes the driver's yaw reading to the current heading.
func (d *Driver) ZeroYaw() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := time.Since(d.boot).Seconds()
	d.yawOffset = elapsed * d.yawRateDegPerSec
	return true
}

func (d *Driver) frameAt(now time.Time) sensor.Frame {
	d.mu.Lock()
	yawOffset := d.yawOffset
	d.mu.Unlock()

	elapsed := now.Sub(d.boot).Seconds()
	yawDeg := math.Mod(elapsed*d.yawRateDegPerSec-yawOffset, 360)
	yawRad := yawDeg * math.Pi / 180

	return sensor.Frame{
		QuatW: math.Cos(yawRad / 2),
		QuatX: 0,
		QuatY: 0,
		QuatZ: -math.Sin(yawRad / 2),
		Yaw:   yawDeg,
		Pitch: 0,
		Roll:  0,
	}
}

// Run drives the callback at the given interval until ctx is canceled. It is
// meant to be run in its own goroutine, typically supervised by an
// errgroup alongside the telemetry server.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now()
			frame := d.frameAt(now)
			sensorTS := now.Sub(d.boot).Nanoseconds()

			d.mu.Lock()
			cb := d.cb
			d.mu.Unlock()

			if cb != nil {
				cb(now.UnixNano(), sensorTS, frame)
			}
		}
	}
}
