package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/obesitrack/obesitrack/internal/application/usecase"
	"github.com/obesitrack/obesitrack/internal/domain/model"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// --- Mock implementations ---

type mockPredictionRepo struct {
	saveErr error
}

func (m *mockPredictionRepo) Save(_ context.Context, _ *model.Prediction) error {
	return m.saveErr
}

func (m *mockPredictionRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.Prediction, error) {
	return nil, nil
}

func (m *mockPredictionRepo) FindBySubject(_ context.Context, _ uuid.UUID, _ int) ([]*model.Prediction, error) {
	return nil, nil
}

func (m *mockPredictionRepo) CountByClass(_ context.Context) ([]port.ClassCount, error) {
	return nil, nil
}

type mockClassifier struct {
	classifyErr error
}

func (m *mockClassifier) Classify(_ context.Context, _ []float64) (port.Classification, error) {
	if m.classifyErr != nil {
		return port.Classification{}, m.classifyErr
	}
	return port.Classification{Label: "Normal_Weight", Probability: 0.8, HasProbability: true}, nil
}

func (m *mockClassifier) Ready() bool { return m.classifyErr == nil }

type mockInspector struct {
	info port.ModelInfo
}

func (m *mockInspector) Info() port.ModelInfo { return m.info }

func (m *mockInspector) FeatureImportances() ([]float64, bool) { return nil, false }

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildTestHandler(repo *mockPredictionRepo, classifier *mockClassifier) *PredictionServiceHandler {
	spec := service.NewFeatureSpec()
	predict := usecase.NewPredict(
		service.NewFeatureContract(spec),
		service.NewFeatureEncoder(spec, nil),
		service.NewRecommender(),
		classifier,
		repo,
		time.Second,
		0.5,
	)
	inspector := &mockInspector{
		info: port.ModelInfo{Mode: "demo", Ready: true, LabelsLoaded: true, ClassCount: 7},
	}
	getModelStatus := usecase.NewGetModelStatus(spec, inspector, 0.5)

	return NewPredictionServiceHandler(predict, getModelStatus, testLogger())
}

func validFeatures() map[string]any {
	return map[string]any{
		"gender": "Male",
		"age":    30.0,
		"height": 175.0,
		"weight": 80.0,
	}
}

// --- Tests ---

func TestPredict(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})
		_, err := h.Predict(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid subject_id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})
		_, err := h.Predict(context.Background(), &PredictRequest{
			SubjectID: "bad-uuid",
			Features:  validFeatures(),
		})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid subject_id")
	})

	t.Run("missing feature returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})
		features := validFeatures()
		delete(features, "weight")

		_, err := h.Predict(context.Background(), &PredictRequest{
			SubjectID: uuid.New().String(),
			Features:  features,
		})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "weight")
	})

	t.Run("model unavailable returns Unavailable", func(t *testing.T) {
		classifier := &mockClassifier{classifyErr: port.ErrModelUnavailable}
		h := buildTestHandler(&mockPredictionRepo{}, classifier)

		_, err := h.Predict(context.Background(), &PredictRequest{
			SubjectID: uuid.New().String(),
			Features:  validFeatures(),
		})
		requireGRPCCode(t, err, codes.Unavailable)
	})

	t.Run("save failure returns Internal", func(t *testing.T) {
		repo := &mockPredictionRepo{saveErr: fmt.Errorf("db error")}
		h := buildTestHandler(repo, &mockClassifier{})

		_, err := h.Predict(context.Background(), &PredictRequest{
			SubjectID: uuid.New().String(),
			Features:  validFeatures(),
		})
		requireGRPCCode(t, err, codes.Internal)
		assert.NotContains(t, err.Error(), "db error")
	})

	t.Run("happy path returns prediction", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})
		subjectID := uuid.New()

		resp, err := h.Predict(context.Background(), &PredictRequest{
			SubjectID: subjectID.String(),
			Features:  validFeatures(),
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Prediction)
		assert.NotEmpty(t, resp.Prediction.ID)
		assert.Equal(t, subjectID.String(), resp.Prediction.SubjectID)
		assert.Equal(t, "Normal_Weight", resp.Prediction.PredictedClass)
		assert.Equal(t, "Low", resp.Prediction.RiskLevel)
		assert.InDelta(t, 26.12, resp.Prediction.BMI, 0.01)
		assert.NotEmpty(t, resp.Prediction.CreatedAt)
	})
}

func TestGetModelStatus(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})
		_, err := h.GetModelStatus(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("reports the loaded model and column layout", func(t *testing.T) {
		h := buildTestHandler(&mockPredictionRepo{}, &mockClassifier{})

		resp, err := h.GetModelStatus(context.Background(), &GetModelStatusRequest{})
		require.NoError(t, err)
		assert.Equal(t, "demo", resp.Mode)
		assert.True(t, resp.Ready)
		assert.Equal(t, 7, resp.ClassCount)
		assert.Equal(t, service.NewFeatureSpec().Width(), resp.FeatureCount)
		assert.Len(t, resp.Columns, resp.FeatureCount)
		assert.Equal(t, 0.5, resp.FallbackConfidence)
	})
}

// requireGRPCCode asserts that an error is a gRPC status error with the given code.
func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %T: %v", err, err)
	assert.Equal(t, code, st.Code(), "expected gRPC code %s, got %s: %s", code, st.Code(), st.Message())
}
