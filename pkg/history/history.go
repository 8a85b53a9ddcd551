// Package history implements a thread-safe, fixed-capacity ring buffer of
// timestamped samples with exact and interpolated lookup by timestamp, plus
// an atomic CSV snapshot export.
//
// It plays the same role in this module that HistoryStore played in the
// network-interface-stats daemon this package is descended from: a ring
// buffer guarded by one mutex, pushed to by a producer and read by
// consumers. Here the ring holds generic timestamped samples of one type
// instead of a map of per-interface counter histories, and lookups
// interpolate between bracketing samples instead of only returning the
// whole ordered slice.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/kauailabs/sf2go/pkg/quantity"
	"github.com/kauailabs/sf2go/pkg/timestamp"
)

// MaxCapacity is the hard ceiling on ring size. Requests above this are
// silently clamped — this is documented policy, not an error.
const MaxCapacity = 1000

// TimeHistory is a fixed-size circular buffer of samples of type T (accessed
// through pointer type PT, which is always *T). Capacity is fixed at
// construction. slots, cursor and numValid are all guarded by mu.
type TimeHistory[T any, PT Sample[T]] struct {
	mu       sync.Mutex
	slots    []T
	valid    []bool
	cursor   int
	numValid int

	tsInfo    timestamp.Info
	valueName string
	units     []quantity.Unit
}

// New pre-allocates capacity slots by cloning prototype and returns a ready
// TimeHistory. capacity is clamped to [1, MaxCapacity]. No further heap
// allocation occurs during steady-state Add/Get/Reset/MostRecent calls.
func New[T any, PT Sample[T]](prototype T, capacity int, tsInfo timestamp.Info, valueName string, units []quantity.Unit) *TimeHistory[T, PT] {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}

	slots := make([]T, capacity)
	for i := range slots {
		slots[i] = PT(&prototype).CloneNew()
	}

	return &TimeHistory[T, PT]{
		slots:     slots,
		valid:     make([]bool, capacity),
		tsInfo:    tsInfo,
		valueName: valueName,
		units:     units,
	}
}

// Reset clears all contents by marking every slot invalid and rewinding the
// cursor. Slot payloads are left as-is; they are overwritten before the next
// read becomes reachable.
func (h *TimeHistory[T, PT]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.valid {
		h.valid[i] = false
	}
	h.cursor = 0
	h.numValid = 0
}

// Add inserts sample at the write cursor and advances it.
//
// Producers MUST call Add in non-decreasing sensor-timestamp order. Get's
// backward-walk early-exit optimization assumes the retained window is
// sorted descending from the most recent slot; out-of-order inserts break
// that invariant silently — TimeHistory does not detect or reject it (see
// Get's doc comment).
func (h *TimeHistory[T, PT]) Add(sample T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	PT(&h.slots[h.cursor]).CopyFrom(&sample)
	h.valid[h.cursor] = true
	h.cursor = (h.cursor + 1) % len(h.slots)
	if h.numValid < len(h.slots) {
		h.numValid++
	}
}

// Get looks up the sample at requestedTS, walking the valid window backwards
// from the most recently written slot. An exact timestamp match is copied
// out verbatim. Otherwise the nearest-preceding and nearest-following slots
// bracket the request and are interpolated. If the request falls outside the
// retained window on either side, Get returns false and out is left
// untouched.
//
// The backward walk's early exit is valid only because Add is contracted to
// receive non-decreasing timestamps, making the retained window sorted
// descending when walked from cursor-1 backwards. If a producer ever
// violates that contract, the early exit may return a suboptimal bracket (or
// none) without any indication that it happened.
func (h *TimeHistory[T, PT]) Get(requestedTS int64, out *T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.numValid == 0 {
		return false
	}

	const unset = int64(1) << 62
	var (
		havePreceding, haveFollowing   bool
		precedingIdx, followingIdx     int
		precedingDelta, followingDelta = -unset, unset
	)

	for i := 0; i < h.numValid; i++ {
		idx := (h.cursor - 1 - i + len(h.slots)) % len(h.slots)
		if !h.valid[idx] {
			continue
		}
		ts := PT(&h.slots[idx]).SampleTimestamp()
		delta := ts - requestedTS

		switch {
		case delta == 0:
			PT(out).CopyFrom(&h.slots[idx])
			PT(out).ClearInterpolated()
			return true
		case delta < 0:
			if !havePreceding || delta > precedingDelta {
				precedingDelta = delta
				precedingIdx = idx
				havePreceding = true
			}
		default:
			if !haveFollowing || delta < followingDelta {
				followingDelta = delta
				followingIdx = idx
				haveFollowing = true
			}
		}

		if havePreceding && haveFollowing && delta < precedingDelta {
			break
		}
	}

	if !havePreceding || !haveFollowing {
		return false
	}

	precedingTS := PT(&h.slots[precedingIdx]).SampleTimestamp()
	followingTS := PT(&h.slots[followingIdx]).SampleTimestamp()
	ratio := float64(requestedTS-precedingTS) / float64(followingTS-precedingTS)

	PT(&h.slots[precedingIdx]).Interpolate(&h.slots[followingIdx], ratio, out)
	return true
}

// MostRecent copies the most recently added valid sample into out and
// returns true, or returns false if the history holds no valid samples.
func (h *TimeHistory[T, PT]) MostRecent(out *T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.numValid == 0 {
		return false
	}
	idx := (h.cursor - 1 + len(h.slots)) % len(h.slots)
	if !h.valid[idx] {
		return false
	}
	PT(out).CopyFrom(&h.slots[idx])
	return true
}

// ValidSampleCount returns the current count of valid samples in the
// history.
func (h *TimeHistory[T, PT]) ValidSampleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.numValid
}

// SnapshotToWriter writes a CSV snapshot of the currently retained samples,
// oldest to newest, to w. The lock is held for the entire write, giving a
// consistent view at the cost of blocking producers until it completes.
func (h *TimeHistory[T, PT]) SnapshotToWriter(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cw := csv.NewWriter(w)

	header := []string{"Timestamp"}
	if h.numValid > 0 {
		oldest := (h.cursor - h.numValid + len(h.slots)) % len(h.slots)
		if names, ok := PT(&h.slots[oldest]).ContainedQuantityNames(); ok {
			for _, n := range names {
				header = append(header, fmt.Sprintf("%s.%s", h.valueName, n))
			}
		} else {
			header = append(header, h.valueName)
		}
	} else {
		header = append(header, h.valueName)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < h.numValid; i++ {
		idx := (h.cursor - h.numValid + i + len(h.slots)) % len(h.slots)
		if !h.valid[idx] {
			continue
		}
		s := &h.slots[idx]
		row := []string{strconv.FormatInt(PT(s).SampleTimestamp(), 10)}
		var parts []string
		PT(s).PrintableParts(&parts)
		row = append(row, parts...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

var suffixPattern = regexp.MustCompile(`(\d+)\.csv$`)

// SnapshotToDirectory derives a filename "<valueName>History<N>.csv" where N
// is one greater than the maximum integer suffix found among existing
// matching files in dir, then writes the snapshot there.
func (h *TimeHistory[T, PT]) SnapshotToDirectory(dir string) error {
	// The original implementation checked the directory bit of the target
	// path's mode (st_mode & S_IFDIR) instead of an actual writability
	// check, which only ever confirmed the path was a directory. Use a
	// real access(2) check instead.
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("snapshot directory %q is not writable: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading snapshot directory: %w", err)
	}

	prefix := h.valueName + "History"
	next := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		m := suffixPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s%d.csv", prefix, next))
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	return h.SnapshotToWriter(f)
}
