// Package sensor adapts an opaque IMU driver into a typed stream of
// multi-field quantity samples delivered to zero or more subscribers, under
// a single mutex shared by the subscriber list and the cached output
// quantity vector.
//
// The subscriber registry mirrors a typical SSE client registry
// (a map guarded by one mutex), generalized from byte-stream channels to a
// Subscriber interface and keyed by a stable google/uuid.UUID instead of
// channel identity, since Subscribe/Unsubscribe need to report
// duplicate/absent registrations rather than merely adding/removing map
// keys.
package sensor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kauailabs/sf2go/pkg/quantity"
	"github.com/kauailabs/sf2go/pkg/quaternion"
	"github.com/kauailabs/sf2go/pkg/timestamp"
)

// Frame is the opaque raw tuple a Driver reports on each callback: the
// connection- and protocol-level detail of the physical sensor is entirely
// the driver's concern.
type Frame struct {
	QuatW, QuatX, QuatY, QuatZ float64
	Yaw, Pitch, Roll           float64
}

// Driver is the external IMU driver collaborator: a callback registration
// API plus a polling API. Connection management and the wire protocol are
// out of scope here; Driver is the seam against which both a real hardware
// driver and a synthetic one (package driver/mock) are implemented.
type Driver interface {
	// OnSample registers the callback invoked for every new frame. Drivers
	// support exactly one registered callback at a time; registering again
	// replaces it.
	OnSample(cb func(systemTS, sensorTS int64, raw Frame))
	// Connected reports whether the driver currently has a live link to
	// the sensor.
	Connected() bool
	// Poll returns the most recent frame and its sensor timestamp without
	// waiting for a callback.
	Poll() (raw Frame, sensorTS int64)
	// ZeroYaw instructs the driver to rezero its yaw reading. Only yaw is
	// resettable among the exposed quantities.
	ZeroYaw() bool
}

// Subscriber receives published quantity vectors. Subscribers are
// contracted to perform bounded work and return promptly: DataSource holds
// its subscriber lock across every Publish call, so a slow or blocking
// subscriber stalls delivery to every other subscriber and the driver
// callback itself.
type Subscriber interface {
	Publish(quantities []quantity.Quantity, processorTS timestamp.Timestamp)
}

// Info is static per-sensor metadata describing one exported quantity.
type Info struct {
	Name string
	Unit quantity.Unit
}

// These indices name the fixed quantity vector layout this package
// publishes: timestamp, quaternion, yaw, pitch, roll.
const (
	idxTimestamp = iota
	idxQuaternion
	idxYaw
	idxPitch
	idxRoll
	quantityCount
)

// DataSource adapts a Driver into a subscriber fan-out. It owns the
// driver's single callback slot, so at most one DataSource is ever attached
// to a given Driver instance.
type DataSource struct {
	mu          sync.Mutex
	driver      Driver
	subscribers map[uuid.UUID]Subscriber

	// quantities is the cached, reused output vector populated on every
	// driver callback; its elements are the same five objects for the life
	// of the DataSource, mutated in place by onSample rather than
	// replaced. It must not be retained by a subscriber past the Publish
	// call that handed it out — this is what lets onSample stay
	// allocation-free in steady state.
	quantities [quantityCount]quantity.Quantity

	// pollQuantities backs Current's poll path. It is a separate cache
	// from quantities so a concurrent Current call can never race with an
	// in-flight Publish over the same backing objects; like quantities,
	// its elements must not be retained past the call that filled them.
	pollQuantities [quantityCount]quantity.Quantity
}

// New constructs a DataSource bound to driver. It does not subscribe to the
// driver until the first successful Subscribe call.
func New(driver Driver) *DataSource {
	ds := &DataSource{
		driver:      driver,
		subscribers: make(map[uuid.UUID]Subscriber),
	}
	ds.quantities = [quantityCount]quantity.Quantity{
		idxTimestamp:  &quantity.Scalar{Unit: quantity.Seconds.Primary},
		idxQuaternion: &quaternion.Quaternion{},
		idxYaw:        &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
		idxPitch:      &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
		idxRoll:       &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
	}
	ds.pollQuantities = [quantityCount]quantity.Quantity{
		idxTimestamp:  &quantity.Scalar{Unit: quantity.Seconds.Primary},
		idxQuaternion: &quaternion.Quaternion{},
		idxYaw:        &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
		idxPitch:      &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
		idxRoll:       &quantity.Scalar{Unit: quantity.Degrees.Secondary[0]},
	}
	return ds
}

// Subscribe registers sub under id. It returns false without effect if id is
// already registered. The driver callback is installed lazily on the first
// subscription.
func (ds *DataSource) Subscribe(id uuid.UUID, sub Subscriber) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.subscribers[id]; exists {
		return false
	}
	if len(ds.subscribers) == 0 {
		ds.driver.OnSample(ds.onSample)
	}
	ds.subscribers[id] = sub
	return true
}

// Unsubscribe removes id's registration, returning whether it was present.
// When the subscriber list empties, the driver callback is deregistered.
func (ds *DataSource) Unsubscribe(id uuid.UUID) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.subscribers[id]; !exists {
		return false
	}
	delete(ds.subscribers, id)
	if len(ds.subscribers) == 0 {
		ds.driver.OnSample(nil)
	}
	return true
}

// onSample is the driver callback: it updates the cached quantity vector in
// place and fans it out to every subscriber while holding the subscriber
// lock. No quantity is reallocated here — only their fields are mutated —
// so a steady stream of callbacks does no heap allocation at all.
func (ds *DataSource) onSample(systemTS, sensorTS int64, raw Frame) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	processorTS := timestamp.New(systemTS, timestamp.Nanosecond)
	sensorTimestamp := timestamp.New(sensorTS, timestamp.Nanosecond)

	// The sensor timestamp is carried as a float32 seconds Scalar, matching
	// the published quantity vector's shape; for any sensorTS not on a
	// whole second this truncates precision beyond float32's ~7 significant
	// digits. Callers needing full nanosecond precision should use
	// processorTS, not this Scalar.
	ds.quantities[idxTimestamp].(*quantity.Scalar).Value = float32(sensorTimestamp.Seconds())
	setQuaternionFromFrame(ds.quantities[idxQuaternion].(*quaternion.Quaternion), raw)
	ds.quantities[idxYaw].(*quantity.Scalar).Value = float32(raw.Yaw)
	ds.quantities[idxPitch].(*quantity.Scalar).Value = float32(raw.Pitch)
	ds.quantities[idxRoll].(*quantity.Scalar).Value = float32(raw.Roll)

	for _, sub := range ds.subscribers {
		sub.Publish(ds.quantities[:], processorTS)
	}
}

// Current is a poll-style read: if the driver reports connected, it fills
// outQuantities (which must have length quantityCount) from fresh driver
// state, carrying the polled sensor timestamp in the Timestamp quantity, and
// stamps outTS with the processor timestamp (the host clock, in
// nanoseconds), returning true. Otherwise
// it returns false and leaves both arguments untouched.
//
// The quantities written into outQuantities are DataSource's own cached
// objects, mutated in place on every call rather than reallocated; callers
// must consume them before the next Current call, the same contract
// onSample's subscribers already observe.
func (ds *DataSource) Current(outQuantities []quantity.Quantity, outTS *timestamp.Timestamp) bool {
	if !ds.driver.Connected() {
		return false
	}
	raw, sensorTS := ds.driver.Poll()

	ds.mu.Lock()
	defer ds.mu.Unlock()

	*outTS = timestamp.New(time.Now().UnixNano(), timestamp.Nanosecond)
	sensorTimestamp := timestamp.New(sensorTS, timestamp.Nanosecond)
	ds.pollQuantities[idxTimestamp].(*quantity.Scalar).Value = float32(sensorTimestamp.Seconds())
	setQuaternionFromFrame(ds.pollQuantities[idxQuaternion].(*quaternion.Quaternion), raw)
	ds.pollQuantities[idxYaw].(*quantity.Scalar).Value = float32(raw.Yaw)
	ds.pollQuantities[idxPitch].(*quantity.Scalar).Value = float32(raw.Pitch)
	ds.pollQuantities[idxRoll].(*quantity.Scalar).Value = float32(raw.Roll)
	copy(outQuantities, ds.pollQuantities[:])
	return true
}

// ResetYaw instructs the driver to rezero yaw. Among the published
// quantities, only yaw is resettable.
func (ds *DataSource) ResetYaw() bool {
	return ds.driver.ZeroYaw()
}

// DataSourceInfos returns static metadata for every quantity this
// DataSource publishes, in vector order.
func (ds *DataSource) DataSourceInfos() []Info {
	return []Info{
		{Name: "Timestamp", Unit: quantity.Seconds.Primary},
		{Name: "Quaternion", Unit: quantity.Unitless.Primary},
		{Name: "Yaw", Unit: quantity.Degrees.Secondary[0]},
		{Name: "Pitch", Unit: quantity.Degrees.Secondary[0]},
		{Name: "Roll", Unit: quantity.Degrees.Secondary[0]},
	}
}

// IndexOf returns the position of the named quantity in a DataSourceInfos
// slice, or -1 if absent. Both orientation.History and telemetry.Server use
// this to discover quantity indices rather than depending on this package's
// internal vector layout.
func IndexOf(infos []Info, name string) int {
	for i, info := range infos {
		if info.Name == name {
			return i
		}
	}
	return -1
}

func setQuaternionFromFrame(q *quaternion.Quaternion, raw Frame) {
	q.W = float32(raw.QuatW)
	q.X = float32(raw.QuatX)
	q.Y = float32(raw.QuatY)
	q.Z = float32(raw.QuatZ)
}
