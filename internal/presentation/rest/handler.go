package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/application/usecase"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// PredictionHandler exposes the prediction API over REST.
type PredictionHandler struct {
	predict           *usecase.Predict
	getHistory        *usecase.GetHistory
	getDistribution   *usecase.GetDistribution
	getModelStatus    *usecase.GetModelStatus
	featureImportance *usecase.GetFeatureImportance
	logger            *slog.Logger
}

// NewPredictionHandler creates a new REST handler.
func NewPredictionHandler(
	predict *usecase.Predict,
	getHistory *usecase.GetHistory,
	getDistribution *usecase.GetDistribution,
	getModelStatus *usecase.GetModelStatus,
	featureImportance *usecase.GetFeatureImportance,
	logger *slog.Logger,
) *PredictionHandler {
	return &PredictionHandler{
		predict:           predict,
		getHistory:        getHistory,
		getDistribution:   getDistribution,
		getModelStatus:    getModelStatus,
		featureImportance: featureImportance,
		logger:            logger,
	}
}

// RegisterRoutes registers the prediction API routes on the given ServeMux.
func (h *PredictionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/predictions", h.Predict)
	mux.HandleFunc("GET /api/v1/predictions", h.History)
	mux.HandleFunc("GET /api/v1/predictions/distribution", h.Distribution)
	mux.HandleFunc("GET /api/v1/model/status", h.ModelStatus)
	mux.HandleFunc("GET /api/v1/model/importance", h.FeatureImportance)
}

// Predict handles POST /api/v1/predictions. The body is a flat JSON object:
// subject_id plus the feature fields, with legacy key casings and aliases
// accepted the way the feature contract resolves them.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawSubject, _ := body["subject_id"].(string)
	if rawSubject == "" {
		writeError(w, http.StatusBadRequest, "subject_id is required")
		return
	}
	subjectID, err := uuid.Parse(rawSubject)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid subject_id: %v", err))
		return
	}
	delete(body, "subject_id")

	resp, err := h.predict.Execute(r.Context(), dto.PredictRequest{
		SubjectID: subjectID,
		Features:  body,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// History handles GET /api/v1/predictions?subject_id=&limit=.
func (h *PredictionHandler) History(w http.ResponseWriter, r *http.Request) {
	rawSubject := r.URL.Query().Get("subject_id")
	if rawSubject == "" {
		writeError(w, http.StatusBadRequest, "subject_id is required")
		return
	}
	subjectID, err := uuid.Parse(rawSubject)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid subject_id: %v", err))
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %v", err))
			return
		}
	}

	resp, err := h.getHistory.Execute(r.Context(), dto.HistoryRequest{
		SubjectID: subjectID,
		Limit:     limit,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Distribution handles GET /api/v1/predictions/distribution.
func (h *PredictionHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getDistribution.Execute(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ModelStatus handles GET /api/v1/model/status.
func (h *PredictionHandler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.getModelStatus.Execute(r.Context()))
}

// FeatureImportance handles GET /api/v1/model/importance.
func (h *PredictionHandler) FeatureImportance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.featureImportance.Execute(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse is the JSON error body. Field is set for input validation
// failures so clients can point at the offending field.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses: input
// validation failures are 400, a missing model is 503, everything else is 500.
func (h *PredictionHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if service.IsClientError(err) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Field: errorField(err),
		})
		return
	}

	if errors.Is(err, port.ErrModelUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// errorField extracts the offending field name from a client error.
func errorField(err error) string {
	var missing *service.MissingFeatureError
	if errors.As(err, &missing) {
		return missing.Field
	}
	var invalid *service.InvalidRangeError
	if errors.As(err, &invalid) {
		return invalid.Field
	}
	var unknown *service.UnknownCategoryError
	if errors.As(err, &unknown) {
		return unknown.Field
	}
	return ""
}

// readJSON reads and unmarshals a JSON request body into the provided value.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MB max
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is empty")
	}
	return json.Unmarshal(body, v)
}

// writeJSON marshals the value as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, errorResponse{Error: msg})
}
