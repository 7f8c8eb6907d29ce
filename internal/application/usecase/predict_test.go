package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/application/usecase"
	"github.com/obesitrack/obesitrack/internal/domain/model"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// --- Mock implementations ---

type mockPredictionRepository struct {
	savedPrediction   *model.Prediction
	saveFunc          func(ctx context.Context, prediction *model.Prediction) error
	findByIDFunc      func(ctx context.Context, id uuid.UUID) (*model.Prediction, error)
	findBySubjectFunc func(ctx context.Context, subjectID uuid.UUID, limit int) ([]*model.Prediction, error)
	countByClassFunc  func(ctx context.Context) ([]port.ClassCount, error)
}

func (m *mockPredictionRepository) Save(ctx context.Context, prediction *model.Prediction) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, prediction)
	}
	m.savedPrediction = prediction
	return nil
}

func (m *mockPredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPredictionRepository) FindBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]*model.Prediction, error) {
	if m.findBySubjectFunc != nil {
		return m.findBySubjectFunc(ctx, subjectID, limit)
	}
	return nil, nil
}

func (m *mockPredictionRepository) CountByClass(ctx context.Context) ([]port.ClassCount, error) {
	if m.countByClassFunc != nil {
		return m.countByClassFunc(ctx)
	}
	return nil, nil
}

type mockClassifier struct {
	classifyFunc func(ctx context.Context, vector []float64) (port.Classification, error)
	lastVector   []float64
	calls        int
}

func (m *mockClassifier) Classify(ctx context.Context, vector []float64) (port.Classification, error) {
	m.calls++
	m.lastVector = vector
	if m.classifyFunc != nil {
		return m.classifyFunc(ctx, vector)
	}
	return port.Classification{Label: "Normal_Weight", Probability: 0.8, HasProbability: true}, nil
}

func (m *mockClassifier) Ready() bool { return true }

type mockModelInspector struct {
	info        port.ModelInfo
	importances []float64
	hasValues   bool
}

func (m *mockModelInspector) Info() port.ModelInfo { return m.info }

func (m *mockModelInspector) FeatureImportances() ([]float64, bool) {
	return m.importances, m.hasValues
}

// --- Tests ---

func newPredictUseCase(classifier port.Classifier, repo port.PredictionRepository) *usecase.Predict {
	spec := service.NewFeatureSpec()
	return usecase.NewPredict(
		service.NewFeatureContract(spec),
		service.NewFeatureEncoder(spec, nil),
		service.NewRecommender(),
		classifier,
		repo,
		time.Second,
		0.5,
	)
}

func validPredictRequest() dto.PredictRequest {
	return dto.PredictRequest{
		SubjectID: uuid.New(),
		Features: map[string]any{
			"gender":                         "Male",
			"age":                            30.0,
			"height":                         175.0,
			"weight":                         80.0,
			"family_history_with_overweight": "yes",
			"favc":                           "yes",
			"fcvc":                           2.0,
			"ncp":                            3.0,
			"caec":                           "Sometimes",
			"smoke":                          "no",
			"ch2o":                           2.0,
			"scc":                            "no",
			"faf":                            1.0,
			"tue":                            1.0,
			"calc":                           "no",
			"mtrans":                         "Public_Transportation",
		},
	}
}

func TestPredict_Execute(t *testing.T) {
	t.Run("runs the full pipeline for a valid request", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{}

		uc := newPredictUseCase(classifier, repo)

		req := validPredictRequest()
		resp, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, req.SubjectID, resp.SubjectID)
		assert.Equal(t, "Normal_Weight", resp.PredictedClass)
		assert.Equal(t, 0.8, resp.Probability)
		assert.Equal(t, 0.8, resp.Confidence)
		assert.Equal(t, "Low", resp.RiskLevel)
		assert.InDelta(t, 26.122448979591837, resp.BMI, 1e-12)
		assert.False(t, resp.CreatedAt.IsZero())

		assert.Len(t, classifier.lastVector, service.NewFeatureSpec().Width())
		require.NotNil(t, repo.savedPrediction)
		assert.Equal(t, "Normal_Weight", repo.savedPrediction.PredictedClass())
	})

	t.Run("rejects a nil subject id before touching the pipeline", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{}

		uc := newPredictUseCase(classifier, repo)

		req := validPredictRequest()
		req.SubjectID = uuid.Nil
		_, err := uc.Execute(context.Background(), req)

		var missing *service.MissingFeatureError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "subject_id", missing.Field)
		assert.Zero(t, classifier.calls)
	})

	t.Run("returns a missing feature error unwrapped", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{}

		uc := newPredictUseCase(classifier, repo)

		req := validPredictRequest()
		delete(req.Features, "weight")
		_, err := uc.Execute(context.Background(), req)

		var missing *service.MissingFeatureError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "weight", missing.Field)
		assert.Equal(t, "missing required feature: weight", err.Error())
		assert.True(t, service.IsClientError(err))
		assert.Zero(t, classifier.calls)
		assert.Nil(t, repo.savedPrediction)
	})

	t.Run("returns an unknown category error from encoding", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{}

		uc := newPredictUseCase(classifier, repo)

		req := validPredictRequest()
		req.Features["caec"] = "Never"
		_, err := uc.Execute(context.Background(), req)

		var unknown *service.UnknownCategoryError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "caec", unknown.Field)
		assert.Equal(t, "Never", unknown.Value)
		assert.True(t, service.IsClientError(err))
		assert.Zero(t, classifier.calls)
	})

	t.Run("propagates model unavailable", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{
			classifyFunc: func(ctx context.Context, vector []float64) (port.Classification, error) {
				return port.Classification{}, port.ErrModelUnavailable
			},
		}

		uc := newPredictUseCase(classifier, repo)

		_, err := uc.Execute(context.Background(), validPredictRequest())

		require.ErrorIs(t, err, port.ErrModelUnavailable)
		assert.False(t, service.IsClientError(err))
		assert.Nil(t, repo.savedPrediction)
	})

	t.Run("applies the fallback confidence for majority-vote models", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{
			classifyFunc: func(ctx context.Context, vector []float64) (port.Classification, error) {
				return port.Classification{Label: "Obesity_Type_I", HasProbability: false}, nil
			},
		}

		uc := newPredictUseCase(classifier, repo)

		resp, err := uc.Execute(context.Background(), validPredictRequest())

		require.NoError(t, err)
		assert.Equal(t, 0.5, resp.Probability)
		assert.Equal(t, 0.5, resp.Confidence)
		assert.Equal(t, "Obesity_Type_I", resp.PredictedClass)
		assert.Equal(t, "High", resp.RiskLevel)
	})

	t.Run("bounds inference with the configured timeout", func(t *testing.T) {
		repo := &mockPredictionRepository{}
		classifier := &mockClassifier{
			classifyFunc: func(ctx context.Context, vector []float64) (port.Classification, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return port.Classification{Label: "Normal_Weight", Probability: 0.9, HasProbability: true}, nil
			},
		}

		uc := newPredictUseCase(classifier, repo)

		_, err := uc.Execute(context.Background(), validPredictRequest())
		require.NoError(t, err)
	})

	t.Run("fails when repository save fails", func(t *testing.T) {
		repo := &mockPredictionRepository{
			saveFunc: func(ctx context.Context, prediction *model.Prediction) error {
				return fmt.Errorf("database unavailable")
			},
		}
		classifier := &mockClassifier{}

		uc := newPredictUseCase(classifier, repo)

		_, err := uc.Execute(context.Background(), validPredictRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save prediction")
		assert.False(t, service.IsClientError(err))
	})
}
