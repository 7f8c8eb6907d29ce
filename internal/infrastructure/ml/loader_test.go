package ml

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obesitrack/obesitrack/internal/domain/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeArtifact(t *testing.T, dir, name string, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	return data
}

// validForest is one leaf-only tree over the full 31-column layout. The
// counts make class index 6 the winner with probability 7/28.
func validForest() *ForestArtifact {
	return &ForestArtifact{
		NFeatures: 31,
		NClasses:  7,
		Trees:     []decisionTree{leafTree([]float64{1, 2, 3, 4, 5, 6, 7})},
	}
}

// obesityClasses lists the trained label order (alphabetical, as the label
// encoder fitted them).
func obesityClasses() []string {
	return []string{
		"Insufficient_Weight",
		"Normal_Weight",
		"Obesity_Type_I",
		"Obesity_Type_II",
		"Obesity_Type_III",
		"Overweight_Level_I",
		"Overweight_Level_II",
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	result, err := Load(filepath.Join(t.TempDir(), "absent"), service.NewFeatureSpec(), testLogger())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestLoad_MissingForestFile(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, scalerFile, scalerArtifact{Mean: []float64{1, 2, 3}, Scale: []float64{1, 1, 1}})

	result, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestLoad_CompleteArtifacts(t *testing.T) {
	dir := t.TempDir()
	forestData := writeArtifact(t, dir, forestFile, validForest())
	scalerData := writeArtifact(t, dir, scalerFile, scalerArtifact{
		Mean:  []float64{24.3, 170.2, 86.6},
		Scale: []float64{6.3, 9.3, 26.2},
	})
	labelsData := writeArtifact(t, dir, labelsFile, labelsArtifact{Classes: obesityClasses()})
	writeArtifact(t, dir, manifestFile, artifactManifest{
		ModelID: "obesity-forest",
		Version: "2024.3",
		Artifacts: map[string]manifestEntry{
			"forest":        {Path: forestFile, SHA256: sha256Hex(forestData)},
			"scaler":        {Path: scalerFile, SHA256: sha256Hex(scalerData)},
			"label_classes": {Path: labelsFile, SHA256: sha256Hex(labelsData)},
		},
	})

	result, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.Classifier)
	require.NotNil(t, result.Scaler)

	info := result.Classifier.Info()
	assert.Equal(t, "artifact", info.Mode)
	assert.True(t, info.Ready)
	assert.True(t, info.ScalerLoaded)
	assert.True(t, info.LabelsLoaded)
	assert.Equal(t, 31, info.FeatureCount)
	assert.Equal(t, 7, info.ClassCount)
	assert.Equal(t, "obesity-forest", info.ModelID)
	assert.Equal(t, "2024.3", info.Version)

	classification, err := result.Classifier.Classify(context.Background(), make([]float64, 31))
	require.NoError(t, err)
	assert.Equal(t, "Overweight_Level_II", classification.Label)
	assert.InDelta(t, 0.25, classification.Probability, 1e-12)
}

func TestLoad_CorruptForest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, forestFile), []byte("{not json"), 0o600))

	_, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing forest artifact")
}

func TestLoad_WidthMismatch(t *testing.T) {
	dir := t.TempDir()
	forest := validForest()
	forest.NFeatures = 30
	writeArtifact(t, dir, forestFile, forest)

	_, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match feature spec width")
}

func TestLoad_ScalerLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, forestFile, validForest())
	writeArtifact(t, dir, scalerFile, scalerArtifact{Mean: []float64{1, 2}, Scale: []float64{1, 2}})

	_, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scaler must carry 3 mean/scale values")
}

func TestLoad_LabelsLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, forestFile, validForest())
	writeArtifact(t, dir, labelsFile, labelsArtifact{Classes: obesityClasses()[:6]})

	_, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match forest n_classes")
}

func TestLoad_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, forestFile, validForest())
	writeArtifact(t, dir, manifestFile, artifactManifest{
		ModelID: "obesity-forest",
		Artifacts: map[string]manifestEntry{
			"forest": {Path: forestFile, SHA256: strings.Repeat("0", 64)},
		},
	})

	_, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestLoad_WithoutScaler(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, forestFile, validForest())
	writeArtifact(t, dir, labelsFile, labelsArtifact{Classes: obesityClasses()})

	result, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Nil(t, result.Scaler)
	assert.False(t, result.Classifier.Info().ScalerLoaded)
}

func TestLoad_EmbeddedClassesFallback(t *testing.T) {
	dir := t.TempDir()
	forest := validForest()
	forest.Classes = obesityClasses()
	writeArtifact(t, dir, forestFile, forest)

	result, err := Load(dir, service.NewFeatureSpec(), testLogger())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Classifier.Info().LabelsLoaded)

	classification, err := result.Classifier.Classify(context.Background(), make([]float64, 31))
	require.NoError(t, err)
	assert.Equal(t, "Overweight_Level_II", classification.Label)
}
