package logic

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/expr"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
	"github.com/felixgeelhaar/exlogic/internal/landmark/landmarktest"
)

func curlSnapshots() (biomech.Snapshot, biomech.Snapshot) {
	start, end := landmarktest.CurlBottom(), landmarktest.CurlTop()
	return biomech.Extract(&start), biomech.Extract(&end)
}

func angles(kv map[string]float64) biomech.Snapshot {
	return biomech.Snapshot{Angles: kv}
}

func TestDeriveThresholds(t *testing.T) {
	start, end := curlSnapshots()

	th := DeriveThresholds(SignalElbow, start, end)

	assert.Equal(t, end.Angles["elbow_left"], th.RepAngleBottomDeg)
	assert.Equal(t, start.Angles["elbow_left"], th.RepAngleTopDeg)
	assert.Less(t, th.RepAngleBottomDeg, th.RepAngleTopDeg)
	assert.Equal(t, 0.0, th.RepProgressTopRaw)
	assert.Equal(t, 1.0, th.RepProgressBottomRaw)
	assert.Equal(t, 25.0, th.MaxArmSyncDiffDeg)
}

func TestDeriveThresholdsEdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		signal     Signal
		start, end biomech.Snapshot
		bottom     float64
		top        float64
	}{
		{
			name:   "min and max across four samples",
			signal: SignalKnee,
			start:  angles(map[string]float64{"knee_left": 100, "knee_right": 90}),
			end:    angles(map[string]float64{"knee_left": 170, "knee_right": 160}),
			bottom: 90,
			top:    170,
		},
		{
			name:   "undefined samples skipped",
			signal: SignalKnee,
			start:  angles(map[string]float64{"knee_left": math.NaN(), "knee_right": 95}),
			end:    angles(map[string]float64{"knee_left": 150}),
			bottom: 95,
			top:    150,
		},
		{
			name:   "no samples use defaults",
			signal: SignalAnkle,
			start:  angles(nil),
			end:    angles(map[string]float64{"ankle_left": math.NaN()}),
			bottom: 60,
			top:    170,
		},
		{
			name:   "identical poses widen",
			signal: SignalElbow,
			start:  angles(map[string]float64{"elbow_left": 90, "elbow_right": 90}),
			end:    angles(map[string]float64{"elbow_left": 90, "elbow_right": 90}),
			bottom: 60,
			top:    120,
		},
		{
			name:   "displacement signal uses defaults",
			signal: SignalWristHeight,
			start:  angles(map[string]float64{"elbow_left": 10}),
			end:    angles(map[string]float64{"elbow_left": 20}),
			bottom: 60,
			top:    170,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DeriveThresholds(tt.signal, tt.start, tt.end)
			assert.Equal(t, tt.bottom, th.RepAngleBottomDeg)
			assert.Equal(t, tt.top, th.RepAngleTopDeg)
		})
	}
}

func TestGuardrailMatchesSignalTriplets(t *testing.T) {
	tests := []struct {
		signal Signal
		want   []string
	}{
		{SignalKnee, []string{"LEFT_HIP", "RIGHT_HIP", "LEFT_KNEE", "RIGHT_KNEE", "LEFT_ANKLE", "RIGHT_ANKLE"}},
		{SignalElbow, []string{"LEFT_SHOULDER", "RIGHT_SHOULDER", "LEFT_ELBOW", "RIGHT_ELBOW", "LEFT_WRIST", "RIGHT_WRIST"}},
		{SignalShoulder, []string{"LEFT_SHOULDER", "RIGHT_SHOULDER", "LEFT_ELBOW", "RIGHT_ELBOW", "LEFT_HIP", "RIGHT_HIP"}},
		{SignalAnkle, []string{"LEFT_KNEE", "RIGHT_KNEE", "LEFT_ANKLE", "RIGHT_ANKLE", "LEFT_FOOT_INDEX", "RIGHT_FOOT_INDEX"}},
		{SignalWristHeight, []string{"LEFT_SHOULDER", "RIGHT_SHOULDER", "LEFT_WRIST", "RIGHT_WRIST"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			g := BuildGuardrail(ProgressExpr(tt.signal))
			assert.Equal(t, tt.want, g.Required)
			assert.Equal(t, g.Required, g.FrameRequired)
			assert.Equal(t, 0.55, g.MinVisibility)
			for _, n := range g.Required {
				_, ok := landmark.Lookup(n)
				assert.True(t, ok, n)
			}
		})
	}
}

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestProgressExprAngleShape(t *testing.T) {
	got := decode(t, ProgressExpr(SignalElbow))

	assert.Equal(t, "avg", got["op"])
	assert.Equal(t, map[string]any{
		"type":                 "invertAngleRange",
		"topAngleMaxDegRef":    "thresholds.repProgressTopRaw",
		"bottomAngleMinDegRef": "thresholds.repProgressBottomRaw",
	}, got["map"])

	args := got["args"].([]any)
	require.Len(t, args, 2)
	left := args[0].(map[string]any)
	assert.Equal(t, "clamp", left["op"])
	div := left["value"].(map[string]any)
	num := div["a"].(map[string]any)
	assert.Equal(t, map[string]any{"op": "angleDeg2d", "a": "LEFT_SHOULDER", "b": "LEFT_ELBOW", "c": "LEFT_WRIST"}, num["a"])
	assert.Equal(t, map[string]any{"ref": "thresholds.repAngleBottomDeg"}, num["b"])
}

func TestProgressExprDisplacementShape(t *testing.T) {
	got := decode(t, ProgressExpr(SignalWristHeight))

	assert.Equal(t, "sub", got["op"])
	assert.Equal(t, map[string]any{"const": 1.0}, got["a"])
	clamp := got["b"].(map[string]any)
	div := clamp["value"].(map[string]any)
	assert.Equal(t, map[string]any{"const": 0.25}, div["b"])
	assert.Contains(t, got, "map")
}

func TestCompile(t *testing.T) {
	start, end := curlSnapshots()

	def, err := Compile(Exercise{Key: "bicep_curl", Name: "Bicep Curl"}, start, end, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, def.SchemaVersion)
	assert.Equal(t, "bicep_curl", def.ID)
	assert.Equal(t, SignalElbow, def.Signal)
	assert.Equal(t, "Generated from exercises-json-only; signal=elbow", def.Comment)
	assert.NotEqual(t, def.Thresholds.RepAngleTopDeg, def.Thresholds.RepAngleBottomDeg)

	fact, ok := def.Facts[FactBothVisible].(expr.AllVisible)
	require.True(t, ok)
	assert.Equal(t, expr.Landmarks(def.RepCounter.Progress), fact.Landmarks)

	require.Len(t, def.Rules, 1)
	assert.Equal(t, 1000, def.Rules[0].Priority)
	assert.Equal(t, "move_back_visible", def.Rules[0].Event.Type)
	assert.Equal(t, false, def.Rules[0].Conditions.All[0].Value)

	doc := decode(t, def)
	for _, key := range []string{"schemaVersion", "id", "guardrail", "thresholds", "repCounter", "facts", "messages", "rules", "comment__auto_generated"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "Signal")
	rc := doc["repCounter"].(map[string]any)
	assert.Equal(t, "full_cycle", rc["mode"])
	assert.Equal(t, map[string]any{"emaAlpha": 0.3}, rc["smoothing"])
	assert.Equal(t, map[string]any{"topProgressMin": 0.8, "bottomProgressMax": 0.18}, rc["extremes"])
	q := rc["quality"].(map[string]any)
	assert.Equal(t, 1500.0, q["minRepMs"])
	assert.Equal(t, 0.006, q["maxProgressVelAbs"])
	assert.Equal(t, "Good rep.", doc["messages"].(map[string]any)["good"])
}

func TestCompileSquatResolvesKnee(t *testing.T) {
	start, end := curlSnapshots()

	def, err := Compile(Exercise{Key: "squat", Name: "Squat"}, start, end, nil)
	require.NoError(t, err)
	assert.Equal(t, SignalKnee, def.Signal)
}

func TestCompileDegenerateStillHasRange(t *testing.T) {
	pose := landmarktest.CurlTop()
	snap := biomech.Extract(&pose)

	def, err := Compile(Exercise{Name: "Bicep Curl"}, snap, snap, nil)
	require.NoError(t, err)
	assert.InDelta(t, 60, def.Thresholds.RepAngleTopDeg-def.Thresholds.RepAngleBottomDeg, 1e-9)
}

func TestCompileIsDeterministic(t *testing.T) {
	start, end := curlSnapshots()
	ex := Exercise{Key: "front_raise", Name: "Front Raise"}
	overrides := Overrides{"front_raise": SignalWristHeight}

	a, err := Compile(ex, start, end, overrides)
	require.NoError(t, err)
	b, err := Compile(ex, start, end, overrides)
	require.NoError(t, err)

	ab, err := a.Encode()
	require.NoError(t, err)
	bb, err := b.Encode()
	require.NoError(t, err)
	if diff := cmp.Diff(string(ab), string(bb)); diff != "" {
		t.Errorf("encodings differ (-a +b):\n%s", diff)
	}
}

func TestCompileRejectsUnknownOverride(t *testing.T) {
	start, end := curlSnapshots()

	_, err := Compile(Exercise{Key: "curl", Name: "Curl"}, start, end, Overrides{"curl": Signal("toe")})

	require.Error(t, err)
	assert.True(t, xerrors.HasCode(err, xerrors.ErrCodeInvalidSignal))
}

func TestDefinitionResolve(t *testing.T) {
	start, end := curlSnapshots()
	def, err := Compile(Exercise{Name: "Squat"}, start, end, nil)
	require.NoError(t, err)

	for _, p := range []string{RefAngleTopDeg, RefAngleBottomDeg, RefProgressTopRaw, RefProgressBottomRaw, RefMinVisibility} {
		assert.True(t, def.Resolve(p), p)
	}
	assert.False(t, def.Resolve("thresholds.missing"))
	assert.False(t, def.Resolve("guardrail"))
	assert.False(t, def.Resolve("guardrail.required"))
}

func TestSanitizeAndSlug(t *testing.T) {
	tests := map[string]string{
		"Bicep Curl":       "bicep_curl",
		"Push-Up (Wide)":   "push_up_wide",
		"  __Squat__  ":    "squat",
		"":                 "exercise",
		"!!!":              "exercise",
		"Farmer's Walk 2x": "farmer_s_walk_2x",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
	assert.Equal(t, "push-up-wide", Slug(Sanitize("Push-Up (Wide)")))
}

func TestBuildManifest(t *testing.T) {
	m := BuildManifest([]ManifestEntry{
		NewManifestEntry("bicep_curl", "Bicep Curl", "Keep elbows tucked"),
		NewManifestEntry("squat", "Squat", ""),
	})

	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "bicep_curl", m.DefaultExerciseID)
	assert.Equal(t, "bicep-curl", m.Exercises[0].Slug)
	assert.Equal(t, "bicep_curl", m.Exercises[0].DefinitionKey)

	empty := decode(t, BuildManifest(nil))
	assert.Equal(t, "", empty["defaultExerciseId"])
	assert.Equal(t, []any{}, empty["exercises"])
}
