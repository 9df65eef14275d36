package pose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// DefaultTimeout bounds one estimator request.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps the decoded response body.
const maxResponseBytes = 1 << 20

// HTTPConfig configures HTTPEstimator.
type HTTPConfig struct {
	// Endpoint receives a POST with the raw image as the body (required).
	Endpoint string

	// Timeout per request (default: 30s).
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// HTTPEstimator posts images to a pose service. The service answers 200
// with {"landmarks": [...]} or 422 when it finds no body.
type HTTPEstimator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPEstimator validates cfg and builds an estimator.
func NewHTTPEstimator(cfg HTTPConfig) (*HTTPEstimator, error) {
	if cfg.Endpoint == "" {
		return nil, xerrors.New(xerrors.ErrCodeConfigInvalid, "pose service endpoint is required").
			WithSuggestion("Set estimator.endpoint in .exlogic/config.yaml or EXLOGIC_ESTIMATOR_ENDPOINT")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPEstimator{endpoint: cfg.Endpoint, client: client}, nil
}

// Detect implements Estimator.
func (e *HTTPEstimator) Detect(ctx context.Context, imagePath string) (landmark.Set, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return landmark.Set{}, xerrors.NewFileNotFoundError(imagePath)
		}
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", imagePath), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(img))
	if err != nil {
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeConfigInvalid, "invalid pose service endpoint", err)
	}
	req.Header.Set("Content-Type", contentType(imagePath, img))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Image-Name", filepath.Base(imagePath))

	resp, err := e.client.Do(req)
	if err != nil {
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeEstimatorUnavailable,
			fmt.Sprintf("pose service request failed for %s", imagePath), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return landmark.Set{}, xerrors.Wrap(xerrors.ErrCodeEstimatorUnavailable, "failed to read pose service response", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeResult(body, imagePath, "pose service")
	case http.StatusUnprocessableEntity:
		return landmark.Set{}, xerrors.NewPoseNotDetectedError(imagePath)
	default:
		return landmark.Set{}, xerrors.New(xerrors.ErrCodeEstimatorUnavailable,
			fmt.Sprintf("pose service returned %d for %s: %s", resp.StatusCode, imagePath, snippet(body)))
	}
}

func contentType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
