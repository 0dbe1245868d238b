package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fraudbatch/internal/api/response"
	"github.com/kiranshivaraju/fraudbatch/internal/store"
)

const (
	defaultPredictionLimit = 100
	maxPredictionLimit     = 1000
)

// PredictionReader reads predictions the engine persisted.
type PredictionReader interface {
	GetPrediction(ctx context.Context, jobID, transactionID string) (*store.PredictionRecord, error)
	ListPredictions(ctx context.Context, filter store.PredictionFilter) ([]*store.PredictionRecord, error)
}

type listPredictionsResponse struct {
	JobID       string                    `json:"job_id"`
	Predictions []*store.PredictionRecord `json:"predictions"`
	Count       int                       `json:"count"`
}

// NewListPredictionsHandler returns an http.HandlerFunc for
// GET /jobs/{jobID}/predictions?min_risk=&limit=, highest risk first.
func NewListPredictionsHandler(reader PredictionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		q := r.URL.Query()

		filter := store.PredictionFilter{JobID: jobID, Limit: defaultPredictionLimit}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxPredictionLimit {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be between 1 and 1000", nil)
				return
			}
			filter.Limit = n
		}
		if v := q.Get("min_risk"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"min_risk must be a number within [0, 1]", nil)
				return
			}
			filter.MinRisk = &f
		}

		records, err := reader.ListPredictions(r.Context(), filter)
		if err != nil {
			slog.Error("list predictions failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if records == nil {
			records = []*store.PredictionRecord{}
		}
		response.JSON(w, listPredictionsResponse{JobID: jobID, Predictions: records, Count: len(records)})
	}
}

// NewGetPredictionHandler returns an http.HandlerFunc for
// GET /jobs/{jobID}/predictions/{transactionID}.
func NewGetPredictionHandler(reader PredictionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		rec, err := reader.GetPrediction(r.Context(), jobID, chi.URLParam(r, "transactionID"))
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "PREDICTION_NOT_FOUND", "Prediction not found", nil)
			return
		}
		if err != nil {
			slog.Error("get prediction failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, rec)
	}
}
