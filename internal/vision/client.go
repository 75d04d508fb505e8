// Package vision talks to the image-labeling service. Requests use the
// images:annotate wire format with the API key passed as a query parameter.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "go-vision-capture/internal/errors"
	"go-vision-capture/internal/logger"
	"go-vision-capture/pkg/models"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

const (
	DefaultEndpoint       = "https://vision.googleapis.com/"
	FeatureLabelDetection = "LABEL_DETECTION"
	// MaxLabels caps how many annotations the service returns per image
	MaxLabels = 3

	defaultTimeout = 20 * time.Second
)

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// Transport overrides the tuned default round tripper
	Transport http.RoundTripper
}

// Client issues label detection requests. It never retries.
type Client struct {
	service  *visionapi.Service
	endpoint string
	timeout  time.Duration
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewConfigError("label service API key is empty", nil)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := cfg.Transport
	if base == nil {
		base = newTransport()
	}

	httpClient := &http.Client{
		Transport: &transport.APIKey{Key: cfg.APIKey, Transport: base},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	service, err := visionapi.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create label service client", err)
	}

	return &Client{
		service:  service,
		endpoint: endpoint,
		timeout:  timeout,
	}, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 16 << 10,
	}
}

// BuildRequest encodes one image with a single label detection feature.
func BuildRequest(image []byte) *visionapi.BatchAnnotateImagesRequest {
	return &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{
			{
				Image: &visionapi.Image{
					Content: base64.StdEncoding.EncodeToString(image),
				},
				Features: []*visionapi.Feature{
					{Type: FeatureLabelDetection, MaxResults: MaxLabels},
				},
			},
		},
	}
}

// DetectLabels sends image to the service and returns its labels in the
// order received. Every failure is a RequestFailed AppError.
func (c *Client) DetectLabels(ctx context.Context, image []byte) (models.LabelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.service.Images.Annotate(BuildRequest(image)).Context(ctx).Do()
	duration := time.Since(start)

	if err != nil {
		reqErr := classify(ctx, err)
		logger.WithError(err).WithFields(logrus.Fields{
			"endpoint":    c.endpoint,
			"reason":      apperrors.ReasonOf(reqErr),
			"duration_ms": duration.Milliseconds(),
		}).Warn("Label request failed")
		return nil, reqErr
	}

	labels, err := MapResponse(resp)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"labels":      len(labels),
		"image_bytes": len(image),
		"duration_ms": duration.Milliseconds(),
	}).Debug("Label request completed")

	return labels, nil
}

// MapResponse extracts responses[0].labelAnnotations verbatim.
func MapResponse(resp *visionapi.BatchAnnotateImagesResponse) (models.LabelResult, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, apperrors.NewRequestFailedError("malformed response: no responses", nil)
	}

	first := resp.Responses[0]
	if first.Error != nil && (first.Error.Code != 0 || first.Error.Message != "") {
		return nil, apperrors.NewRequestFailedError(
			fmt.Sprintf("service error: %s", first.Error.Message), nil)
	}

	labels := make(models.LabelResult, 0, len(first.LabelAnnotations))
	for _, ann := range first.LabelAnnotations {
		if ann == nil {
			continue
		}
		labels = append(labels, models.Label{
			Description: ann.Description,
			Score:       ann.Score,
		})
	}
	return labels, nil
}

func classify(ctx context.Context, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewRequestFailedError(apperrors.ReasonTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewRequestFailedError("cancelled", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apperrors.NewRequestFailedError(fmt.Sprintf("status %d", apiErr.Code), err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return apperrors.NewRequestFailedError(apperrors.ReasonTimeout, err)
		}
		return apperrors.NewRequestFailedError(fmt.Sprintf("network: %v", urlErr.Err), err)
	}

	return apperrors.NewRequestFailedError(fmt.Sprintf("malformed response: %v", err), err)
}
