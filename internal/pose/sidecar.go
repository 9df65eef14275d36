package pose

import (
	"context"
	"fmt"
	"os"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// SidecarSuffix is appended to an image path to find its landmark file.
const SidecarSuffix = ".pose.json"

// SidecarEstimator reads landmarks precomputed by an offline model from
// <image>.pose.json next to each image.
type SidecarEstimator struct{}

// NewSidecarEstimator returns a SidecarEstimator.
func NewSidecarEstimator() *SidecarEstimator {
	return &SidecarEstimator{}
}

// Detect implements Estimator.
func (SidecarEstimator) Detect(ctx context.Context, imagePath string) (landmark.Set, error) {
	if err := ctx.Err(); err != nil {
		return landmark.Set{}, err
	}
	path := imagePath + SidecarSuffix
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return landmark.Set{}, xerrors.New(xerrors.ErrCodeEstimatorUnavailable,
				fmt.Sprintf("no landmark sidecar for %s", imagePath)).
				WithSuggestion(fmt.Sprintf("Run the pose model and save its output to %s", path)).
				WithSuggestion("Or use --estimator http with a running pose service")
		}
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	return decodeResult(data, imagePath, "sidecar")
}

// CacheInput implements KeySource. A detection is determined by the sidecar
// content, not by the image it sits next to.
func (SidecarEstimator) CacheInput(imagePath string) ([]byte, error) {
	return os.ReadFile(imagePath + SidecarSuffix)
}

// WriteSidecar stores a detection next to its image. A nil set records
// that no pose was found.
func WriteSidecar(imagePath string, set *landmark.Set) error {
	r := Result{Landmarks: []landmark.Landmark{}}
	if set != nil {
		r.Landmarks = set[:]
	}
	return fsutil.WriteJSONAtomic(imagePath+SidecarSuffix, r)
}
