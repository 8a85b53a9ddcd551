// Package orientation implements the user-facing "orientation at time T"
// façade atop a history.TimeHistory of quaternion samples, fed by
// subscribing to a sensor.DataSource.
package orientation

import (
	"errors"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/kauailabs/sf2go/pkg/history"
	"github.com/kauailabs/sf2go/pkg/quantity"
	"github.com/kauailabs/sf2go/pkg/quaternion"
	"github.com/kauailabs/sf2go/pkg/sample"
	"github.com/kauailabs/sf2go/pkg/sensor"
	"github.com/kauailabs/sf2go/pkg/timestamp"
)

// ErrQuantityMissing is returned by New when the data source does not
// export a Quaternion quantity.
var ErrQuantityMissing = errors.New("orientation: data source does not export a Quaternion quantity")

// QuaternionSample is the concrete sample type stored in the history: a
// quaternion value with a sensor timestamp and validity/interpolated flags.
type QuaternionSample = sample.TimestampedValue[quaternion.Quaternion, *quaternion.Quaternion]

// History is the "orientation at time T" façade. It subscribes to a
// sensor.DataSource and stores every published quaternion sample in a
// fixed-capacity history.TimeHistory.
type History struct {
	id         uuid.UUID
	source     *sensor.DataSource
	quatIdx    int
	tsIdx      int
	haveTSIdx  bool
	hist       *history.TimeHistory[QuaternionSample, *QuaternionSample]
}

// New discovers the Quaternion (and optional Timestamp) quantity indices
// from source's DataSourceInfos, constructs a history.TimeHistory of the
// requested capacity (clamped to history.MaxCapacity), subscribes to
// source, and returns the façade. It fails fast with ErrQuantityMissing if
// source does not export a Quaternion quantity.
func New(source *sensor.DataSource, capacity int) (*History, error) {
	quatIdx, tsIdx, err := resolveQuantityIndices(source.DataSourceInfos())
	if err != nil {
		return nil, err
	}

	tsInfo := timestamp.Info{
		Scope:             timestamp.PerSensor,
		Basis:             timestamp.SinceLastBoot,
		ResolutionSeconds: 1e-9,
		Default:           timestamp.New(0, timestamp.Nanosecond),
	}

	prototype := sample.New[quaternion.Quaternion, *quaternion.Quaternion](quaternion.Identity(), 0)
	hist := history.New[QuaternionSample, *QuaternionSample](
		prototype, capacity, tsInfo, "Orientation",
		[]quantity.Unit{quantity.Unitless.Primary},
	)

	h := &History{
		id:        uuid.New(),
		source:    source,
		quatIdx:   quatIdx,
		tsIdx:     tsIdx,
		haveTSIdx: tsIdx >= 0,
		hist:      hist,
	}

	if !source.Subscribe(h.id, h) {
		return nil, errors.New("orientation: duplicate subscription to data source")
	}
	return h, nil
}

// resolveQuantityIndices locates the Quaternion and optional Timestamp
// entries in infos. It fails with ErrQuantityMissing if Quaternion is
// absent; tsIdx is -1 if Timestamp is absent, which is not an error.
func resolveQuantityIndices(infos []sensor.Info) (quatIdx, tsIdx int, err error) {
	quatIdx = sensor.IndexOf(infos, "Quaternion")
	tsIdx = sensor.IndexOf(infos, "Timestamp")
	if quatIdx < 0 {
		return 0, 0, ErrQuantityMissing
	}
	return quatIdx, tsIdx, nil
}

// Close unsubscribes the façade from its data source.
func (h *History) Close() {
	h.source.Unsubscribe(h.id)
}

// Publish implements sensor.Subscriber. It is called with the lock held by
// the publishing DataSource: it must do bounded work and return promptly.
func (h *History) Publish(quantities []quantity.Quantity, processorTS timestamp.Timestamp) {
	quat, ok := quantities[h.quatIdx].(*quaternion.Quaternion)
	if !ok {
		return
	}

	// ts.Value is a float32 seconds Scalar (see sensor.DataSource.onSample),
	// so any sensorTS off a whole second loses precision beyond float32's
	// ~7 significant digits on this round trip; it mirrors the source
	// timestamp's shape and is accepted as a defensible, lossy conversion
	// rather than carrying a second, full-precision timestamp field.
	sensorTS := processorTS.Nanoseconds()
	if h.haveTSIdx {
		if ts, ok := quantities[h.tsIdx].(*quantity.Scalar); ok {
			sensorTS = timestamp.NewFromSeconds(float64(ts.Value), timestamp.Nanosecond).Count
		}
	}

	h.hist.Add(sample.New[quaternion.Quaternion, *quaternion.Quaternion](*quat, sensorTS))
}

// QuaternionAt queries the history at ts and returns the (possibly
// interpolated) quaternion, or false if ts falls outside the retained
// window.
func (h *History) QuaternionAt(ts int64) (quaternion.Quaternion, bool) {
	var out QuaternionSample
	if !h.hist.Get(ts, &out) {
		return quaternion.Quaternion{}, false
	}
	return out.Value, true
}

// YawDegAt returns the yaw at ts in degrees, or NaN if ts falls outside the
// retained window.
func (h *History) YawDegAt(ts int64) float64 {
	q, ok := h.QuaternionAt(ts)
	if !ok {
		return math.NaN()
	}
	yaw, _, _ := q.YawPitchRollRadians()
	return yaw * 180 / math.Pi
}

// PitchDegAt returns the pitch at ts in degrees, or NaN if ts falls outside
// the retained window.
func (h *History) PitchDegAt(ts int64) float64 {
	q, ok := h.QuaternionAt(ts)
	if !ok {
		return math.NaN()
	}
	_, pitch, _ := q.YawPitchRollRadians()
	return pitch * 180 / math.Pi
}

// RollDegAt returns the roll at ts in degrees, or NaN if ts falls outside
// the retained window.
func (h *History) RollDegAt(ts int64) float64 {
	q, ok := h.QuaternionAt(ts)
	if !ok {
		return math.NaN()
	}
	_, _, roll := q.YawPitchRollRadians()
	return roll * 180 / math.Pi
}

// MostRecentQuaternion returns the most recently published quaternion, or
// false if the history is empty.
func (h *History) MostRecentQuaternion() (quaternion.Quaternion, bool) {
	var out QuaternionSample
	if !h.hist.MostRecent(&out) {
		return quaternion.Quaternion{}, false
	}
	return out.Value, true
}

// WriteToDirectory delegates to the underlying history's CSV snapshot.
func (h *History) WriteToDirectory(dir string) error {
	return h.hist.SnapshotToDirectory(dir)
}

// WriteSnapshot writes a CSV snapshot of the currently retained samples to
// w, oldest to newest. Used by the telemetry server to serve /api/history
// without touching the filesystem.
func (h *History) WriteSnapshot(w io.Writer) error {
	return h.hist.SnapshotToWriter(w)
}
