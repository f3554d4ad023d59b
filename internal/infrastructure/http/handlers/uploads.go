package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// UploadHandlers handles image uploads for the extraction flow
type UploadHandlers struct {
	storage outbound.StorageService
	cfg     config.StorageConfig
	logger  *zap.Logger
}

// NewUploadHandlers creates a new upload handlers instance
func NewUploadHandlers(storage outbound.StorageService, cfg config.StorageConfig, logger *zap.Logger) *UploadHandlers {
	return &UploadHandlers{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

// UploadImage handles POST /api/v1/uploads. The multipart image lands in
// object storage; the response carries a presigned URL the extraction
// endpoint accepts.
func (h *UploadHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.MaxFileSize); err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("missing image field"))
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxFileSize {
		writeError(w, r, h.logger, apperrors.NewBadRequestError(
			fmt.Sprintf("file exceeds %d bytes", h.cfg.MaxFileSize)))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !h.allowedType(contentType) {
		writeError(w, r, h.logger, apperrors.NewBadRequestError(
			"unsupported content type: "+contentType))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxFileSize))
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("failed to read upload"))
		return
	}

	key := fmt.Sprintf("uploads/%s%s", uuid.New(), path.Ext(header.Filename))
	if _, err := h.storage.Upload(r.Context(), key, data, contentType); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	expiry := h.cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	url, err := h.storage.GeneratePresignedURL(r.Context(), key, expiry)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"key": key,
			"url": url,
		},
	})
}

func (h *UploadHandlers) allowedType(contentType string) bool {
	if len(h.cfg.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedTypes {
		if allowed == contentType {
			return true
		}
	}
	return false
}
