package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/internal/domain/scoring"
	"github.com/okian/factboard/pkg/logger"
)

// PredictionsDependencies defines the interface for scoring predictions.
type PredictionsDependencies interface {
	Score(ctx context.Context, predictions []model.Prediction) (scoring.Result, error)
}

// PredictionsHandler scores uploaded predictions.
type PredictionsHandler struct {
	deps     PredictionsDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionsDependencies, maxBytes int64, log logger.Logger) *PredictionsHandler {
	return &PredictionsHandler{deps: deps, maxBytes: maxBytes, logger: log}
}

// HandleUploadPredictions handles POST /api/upload_predictions requests.
func (h *PredictionsHandler) HandleUploadPredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_predictions"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req predictionsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, h.logger, WrapKind(op, ErrPayloadTooLarge, err), "Error scoring predictions")
			return
		}
		writeError(ctx, w, h.logger, WrapKind(op, ErrMalformedBody, err), "Error scoring predictions")
		return
	}

	res, err := h.deps.Score(ctx, req)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err), "Error scoring predictions")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
