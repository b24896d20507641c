package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/service"
)

// imageFormField is the multipart field carrying the upload.
const imageFormField = "image"

// ImageUploader resizes and stores recipe images.
type ImageUploader interface {
	Enabled() bool
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// ImageHandler handles POST /api/v1/images.
type ImageHandler struct {
	svc         ImageUploader
	maxFileSize int64
	logger      *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(svc ImageUploader, maxFileSize int64, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{svc: svc, maxFileSize: maxFileSize, logger: logger}
}

// Upload accepts a multipart form with an "image" file and returns the
// hosted URL.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	if !h.svc.Enabled() {
		handleServiceError(h.logger, w, r, service.ErrImageHostDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "MISSING_IMAGE", `Multipart field "image" is required`)
		return
	}
	defer file.Close()

	url, err := h.svc.Upload(r.Context(), file)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImageUploadResponse{URL: url})
}
