// Package capture serializes a start/end snapshot pair, optionally with the
// raw landmarks, into the exercise.logic.json capture payload.
package capture

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// FileName is the capture payload written into each exercise directory.
const FileName = "exercise.logic.json"

// DefaultRepLogic describes the rep as a transition between the two states.
const DefaultRepLogic = "start -> end"

// COCOFormat documents the keypoint layout.
const COCOFormat = "coco-17-[x,y,visibility]*17 (normalized)"

// Tolerance is carried through to the runtime untouched.
type Tolerance struct {
	AngleDeg float64 `json:"angle_deg"`
	RatioPct float64 `json:"ratio_pct"`
}

// DefaultTolerance returns the tolerance used when none is given.
func DefaultTolerance() Tolerance {
	return Tolerance{AngleDeg: 15, RatioPct: 0.15}
}

// Payload is the persisted capture document.
type Payload struct {
	Exercise  string    `json:"exercise"`
	States    States    `json:"states"`
	RepLogic  string    `json:"rep_logic"`
	Tolerance Tolerance `json:"tolerance"`
	COCO      *COCO     `json:"coco,omitempty"`
}

type States struct {
	Start State `json:"start"`
	End   State `json:"end"`
}

// State is one pose's measurements.
type State struct {
	Angles      NumberMap       `json:"angles"`
	Ratios      NumberMap       `json:"ratios"`
	Orientation NumberMap       `json:"orientation"`
	Landmarks   *LandmarksBlock `json:"landmarks,omitempty"`
}

// LandmarksBlock is the full landmark set with its lower-case names.
type LandmarksBlock struct {
	OrderedNames []string            `json:"ordered_names"`
	Points       []landmark.Landmark `json:"points"`
}

// COCO holds the 17-point keypoint subsets. A nil side encodes as null.
type COCO struct {
	StartKeypoints []float64 `json:"start_keypoints"`
	EndKeypoints   []float64 `json:"end_keypoints"`
	Format         string    `json:"format"`
}

// NumberMap encodes non-finite values as null and decodes null as NaN.
type NumberMap map[string]float64

func (m NumberMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	return json.Marshal(out)
}

func (m *NumberMap) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(NumberMap, len(raw))
	for k, v := range raw {
		if v == nil {
			out[k] = math.NaN()
			continue
		}
		out[k] = *v
	}
	*m = out
	return nil
}

// Options tune BuildPayload. Zero values select the defaults.
type Options struct {
	RepLogic       string
	Tolerance      *Tolerance
	StartLandmarks *landmark.Set
	EndLandmarks   *landmark.Set
	IncludeCOCO    bool
}

// BuildPayload assembles the capture document.
func BuildPayload(exercise string, start, end biomech.Snapshot, opts Options) Payload {
	p := Payload{
		Exercise: exercise,
		States: States{
			Start: newState(start, opts.StartLandmarks),
			End:   newState(end, opts.EndLandmarks),
		},
		RepLogic:  opts.RepLogic,
		Tolerance: DefaultTolerance(),
	}
	if p.RepLogic == "" {
		p.RepLogic = DefaultRepLogic
	}
	if opts.Tolerance != nil {
		p.Tolerance = *opts.Tolerance
	}
	if opts.IncludeCOCO {
		p.COCO = &COCO{
			StartKeypoints: Keypoints(opts.StartLandmarks),
			EndKeypoints:   Keypoints(opts.EndLandmarks),
			Format:         COCOFormat,
		}
	}
	return p
}

func newState(snap biomech.Snapshot, set *landmark.Set) State {
	s := State{
		Angles:      NumberMap(snap.Angles),
		Ratios:      NumberMap(snap.Ratios),
		Orientation: NumberMap(snap.Orientation),
	}
	if set != nil {
		s.Landmarks = NewLandmarksBlock(set)
	}
	return s
}

// NewLandmarksBlock copies a set in canonical order.
func NewLandmarksBlock(set *landmark.Set) *LandmarksBlock {
	names := landmark.Names()
	b := &LandmarksBlock{
		OrderedNames: make([]string, len(names)),
		Points:       make([]landmark.Landmark, landmark.Count),
	}
	for i, n := range names {
		b.OrderedNames[i] = strings.ToLower(n)
	}
	copy(b.Points, set[:])
	return b
}

// Keypoints flattens the COCO-17 subset of a set as x, y, visibility
// triples. A nil set yields nil.
func Keypoints(set *landmark.Set) []float64 {
	if set == nil {
		return nil
	}
	out := make([]float64, 0, len(landmark.COCO17)*3)
	for _, i := range landmark.COCO17 {
		lm := set.At(i)
		out = append(out, lm.X, lm.Y, lm.Visibility)
	}
	return out
}

// Snapshot rebuilds the measurement part of a state. Visibility is not
// persisted and comes back as zero.
func (s State) Snapshot() biomech.Snapshot {
	return biomech.Snapshot{
		Angles:      map[string]float64(s.Angles),
		Ratios:      map[string]float64(s.Ratios),
		Orientation: map[string]float64(s.Orientation),
	}
}

// LandmarkSet returns the persisted landmarks, if any.
func (s State) LandmarkSet() (landmark.Set, bool) {
	if s.Landmarks == nil {
		return landmark.Set{}, false
	}
	set, err := landmark.FromSlice(s.Landmarks.Points)
	if err != nil {
		return landmark.Set{}, false
	}
	return set, true
}
