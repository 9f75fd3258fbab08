package timeline

import (
	"errors"
	"fmt"
	"time"
)

// Timescale is the number of timestamp units per second. 600 divides
// evenly by common frame rates (24, 25, 30, 60), so both whole-second
// photo holds and sub-second transition steps are exact integers.
const Timescale = 600

// TransitionFrameCount is the number of intermediate frames composited
// for each transition between two photos.
const TransitionFrameCount = 15

// epsilon is the smallest representable schedule step, used to extend
// the final photo to the end of its hold without colliding with the
// clip boundary.
const epsilon Timestamp = 1

// Timestamp is a presentation time in Timescale units.
type Timestamp int64

// Seconds returns the timestamp as wall-clock seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t) / Timescale
}

// ToUnits converts a duration to whole Timescale units, truncating
// toward zero.
func ToUnits(d time.Duration) Timestamp {
	return Timestamp(int64(d) * Timescale / int64(time.Second))
}

// Kind identifies what a schedule entry displays.
type Kind int

const (
	// KindMain is a frame showing a single photo.
	KindMain Kind = iota
	// KindTransition is a composited frame blending two photos.
	KindTransition
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindTransition:
		return "transition"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Entry is one frame in the composition schedule. For KindMain only
// Photo is meaningful; for KindTransition the frame blends Photo into
// Next at the given Progress in (0, 1].
type Entry struct {
	PTS      Timestamp
	Kind     Kind
	Photo    int
	Next     int
	Progress float64
}

// Plan describes one composition run's timing.
type Plan struct {
	PhotoCount int
	PerPhoto   time.Duration
	Transition time.Duration
}

var (
	// ErrNoPhotos indicates a plan with zero photos.
	ErrNoPhotos = errors.New("timeline: plan has no photos")

	// ErrBadDurations indicates the transition window does not fit
	// inside the per-photo hold.
	ErrBadDurations = errors.New("timeline: transition duration must be positive and shorter than per-photo duration")
)

// Validate checks the plan invariants.
func (p Plan) Validate() error {
	if p.PhotoCount <= 0 {
		return ErrNoPhotos
	}
	if p.PerPhoto <= 0 || p.Transition <= 0 || p.Transition >= p.PerPhoto {
		return ErrBadDurations
	}
	return nil
}

// Schedule is the full ordered frame list for one run. It is built
// once, never mutated, and can be iterated any number of times.
type Schedule struct {
	entries []Entry
	end     Timestamp
}

// Len returns the number of entries.
func (s *Schedule) Len() int { return len(s.entries) }

// At returns the entry at index i.
func (s *Schedule) At(i int) Entry { return s.entries[i] }

// Entries returns the ordered entries. Callers must not modify the
// returned slice.
func (s *Schedule) Entries() []Entry { return s.entries }

// End returns the nominal clip length in Timescale units, one epsilon
// past the final entry.
func (s *Schedule) End() Timestamp { return s.end }

// Build produces the frame schedule for a plan.
//
// Each photo gets one main frame at the start of its hold. Between
// consecutive photos, TransitionFrameCount transition frames are spread
// evenly across the transition window at the end of the outgoing
// photo's hold, with progress (k+1)/TransitionFrameCount. The final
// photo gets one extra main frame just before the end of its hold so
// encoders that derive clip length from the last sample time do not
// truncate it.
//
// Timestamps are strictly increasing. If rounding would produce a
// collision, the entry is nudged forward by one unit, never backward
// and never dropped.
func Build(p Plan) (*Schedule, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	perPhoto := ToUnits(p.PerPhoto)
	transition := ToUnits(p.Transition)

	entries := make([]Entry, 0, p.PhotoCount+(p.PhotoCount-1)*TransitionFrameCount+1)
	var current Timestamp
	last := Timestamp(-1)

	push := func(e Entry) {
		if e.PTS <= last {
			e.PTS = last + epsilon
		}
		last = e.PTS
		entries = append(entries, e)
	}

	for i := 0; i < p.PhotoCount; i++ {
		push(Entry{PTS: current, Kind: KindMain, Photo: i})

		if i < p.PhotoCount-1 {
			start := current + perPhoto - transition
			for k := 0; k < TransitionFrameCount; k++ {
				progress := float64(k+1) / TransitionFrameCount
				pts := start + Timestamp(int64(transition)*int64(k)/TransitionFrameCount)
				push(Entry{
					PTS:      pts,
					Kind:     KindTransition,
					Photo:    i,
					Next:     i + 1,
					Progress: progress,
				})
			}
		} else {
			// Hold the last photo for its full configured duration.
			push(Entry{PTS: current + perPhoto - epsilon, Kind: KindMain, Photo: i})
		}

		current += perPhoto
	}

	return &Schedule{entries: entries, end: current}, nil
}
