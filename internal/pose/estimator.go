// Package pose adapts external pose-estimation models. An estimator returns
// either a complete landmark set or a PoseNotDetected error; partial output is
// a contract violation.
package pose

import (
	"context"
	"encoding/json"
	"fmt"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Estimator detects the body pose in one image.
type Estimator interface {
	Detect(ctx context.Context, imagePath string) (landmark.Set, error)
}

// Result is the wire shape shared by the sidecar file and the HTTP service.
type Result struct {
	Landmarks []landmark.Landmark `json:"landmarks"`
}

// decodeResult turns an encoded Result into a landmark set. An empty list
// means no pose; any other length than landmark.Count breaks the contract.
func decodeResult(data []byte, imagePath, source string) (landmark.Set, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeEstimatorContract,
			fmt.Sprintf("%s returned malformed landmarks for %s", source, imagePath), err)
	}
	if len(r.Landmarks) == 0 {
		return landmark.Set{}, xerrors.NewPoseNotDetectedError(imagePath)
	}
	set, err := landmark.FromSlice(r.Landmarks)
	if err != nil {
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeEstimatorContract,
			fmt.Sprintf("%s returned %d landmarks for %s", source, len(r.Landmarks), imagePath), err)
	}
	return set, nil
}

// Func adapts a function to Estimator.
type Func func(ctx context.Context, imagePath string) (landmark.Set, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, imagePath string) (landmark.Set, error) {
	return f(ctx, imagePath)
}
