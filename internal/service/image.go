package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/nfnt/resize"
	"github.com/tidwall/gjson"
)

// Image upload settings.
const (
	DefaultImageMaxHeight = 500
	DefaultImageMaxPixels = 40_000_000
	imageJPEGQuality      = 85
	imageUploadTimeout    = 30 * time.Second
	maxImageHostResponse  = 1 << 20
)

// ImageService resizes images and uploads them to the image host.
type ImageService struct {
	hostURL   string
	apiKey    string
	maxHeight uint
	maxPixels int64
	client    *http.Client
	logger    *slog.Logger
}

// NewImageService creates a new ImageService. An empty hostURL disables uploads.
// Images whose header declares more than maxPixels pixels are rejected before
// their pixel data is decoded.
func NewImageService(hostURL, apiKey string, maxHeight int, maxPixels int64, logger *slog.Logger) *ImageService {
	if maxHeight <= 0 {
		maxHeight = DefaultImageMaxHeight
	}
	if maxPixels <= 0 {
		maxPixels = DefaultImageMaxPixels
	}
	return &ImageService{
		hostURL:   hostURL,
		apiKey:    apiKey,
		maxHeight: uint(maxHeight),
		maxPixels: maxPixels,
		client:    &http.Client{Timeout: imageUploadTimeout},
		logger:    logger.With("component", "images"),
	}
}

// Enabled reports whether an image host is configured.
func (s *ImageService) Enabled() bool {
	return s.hostURL != ""
}

// Upload decodes a JPEG, PNG or GIF, shrinks it to the maximum height,
// re-encodes it as JPEG and uploads it. It returns the hosted URL.
func (s *ImageService) Upload(ctx context.Context, r io.Reader) (string, error) {
	if !s.Enabled() {
		return "", ErrImageHostDisabled
	}

	encoded, err := s.prepare(r)
	if err != nil {
		return "", err
	}

	body, contentType, err := s.buildForm(encoded)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.hostURL, body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUploadFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxImageHostResponse))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrImageUploadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.WarnContext(ctx, "image host rejected upload", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: HTTP %d", ErrImageUploadFailed, resp.StatusCode)
	}

	url := gjson.GetBytes(respBody, "image.url")
	if !url.Exists() || url.String() == "" {
		return "", fmt.Errorf("%w: response has no image url", ErrImageUploadFailed)
	}

	return url.String(), nil
}

// prepare returns the resized image as JPEG bytes.
func (s *ImageService) prepare(r io.Reader) ([]byte, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > s.maxPixels {
		return nil, ErrImageTooLarge
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, ErrInvalidImage
	}

	if uint(img.Bounds().Dy()) > s.maxHeight {
		img = resize.Resize(0, s.maxHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: imageJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ImageService) buildForm(encoded []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"key", s.apiKey},
		{"action", "upload"},
		{"source", base64.StdEncoding.EncodeToString(encoded)},
		{"format", "json"},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
