package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/factboard/pkg/logger"
)

// Multipart field names of POST /api/upload-results.
const (
	formFileResults = "results"
	formTeamName    = "teamName"
)

// UploadDependencies defines the interface for results ingestion.
type UploadDependencies interface {
	Ingest(ctx context.Context, raw []byte, teamName string) error
}

// UploadHandler handles results uploads.
type UploadHandler struct {
	deps     UploadDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps UploadDependencies, maxBytes int64, log logger.Logger) *UploadHandler {
	return &UploadHandler{deps: deps, maxBytes: maxBytes, logger: log}
}

// HandleUploadResults handles POST /api/upload-results multipart requests.
func (h *UploadHandler) HandleUploadResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_results"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(ctx, w, h.logger, formError(op, err), "Error processing upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(formFileResults)
	if err != nil {
		writeError(ctx, w, h.logger, NewKind(op, ErrMissingFile), "Error processing upload")
		return
	}
	defer func() { _ = file.Close() }()

	if !isJSONPart(header.Header.Get("Content-Type")) {
		writeError(ctx, w, h.logger, NewKind(op, ErrUnsupportedFile), "Error processing upload")
		return
	}

	team := r.FormValue(formTeamName)
	if strings.TrimSpace(team) == "" {
		writeError(ctx, w, h.logger, NewKind(op, ErrMissingTeam), "Error processing upload")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err), "Error processing upload")
		return
	}

	if err := h.deps.Ingest(ctx, raw, team); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err), "Error processing upload")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Results uploaded successfully"})
}

func formError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return WrapKind(op, ErrPayloadTooLarge, err)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return NewKind(op, ErrMissingFile)
	default:
		return WrapKind(op, ErrBadRequest, err)
	}
}

// isJSONPart reports whether a file part's content type is acceptable.
// A part without a content type is accepted.
func isJSONPart(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "application/json", "text/json":
		return true
	default:
		return false
	}
}
