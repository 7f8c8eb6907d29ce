package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

const (
	forestFile   = "forest.json"
	scalerFile   = "scaler.json"
	labelsFile   = "label_classes.json"
	manifestFile = "manifest.json"
)

// ForestArtifact is the deserialized forest.json. Classes and
// FeatureImportances are optional; Trees carry the per-tree node arrays.
type ForestArtifact struct {
	NFeatures          int            `json:"n_features"`
	NClasses           int            `json:"n_classes"`
	Classes            []string       `json:"classes"`
	FeatureImportances []float64      `json:"feature_importances"`
	Trees              []decisionTree `json:"trees"`
}

type scalerArtifact struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type labelsArtifact struct {
	Classes []string `json:"classes"`
}

type manifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type artifactManifest struct {
	ModelID   string                   `json:"model_id"`
	Version   string                   `json:"version"`
	Artifacts map[string]manifestEntry `json:"artifacts"`
}

// LoadResult bundles what Load assembled from a model directory. Scaler is
// nil when scaler.json is absent; the encoder then passes raw values through.
type LoadResult struct {
	Classifier *ForestClassifier
	Scaler     port.FeatureScaler
}

// Load assembles the classifier stack from dir. A missing directory or a
// missing forest file is a degraded start, not an error: Load returns
// (nil, nil) and the caller substitutes an UnavailableClassifier. An
// artifact that is present but unparseable, or that fails its manifest
// checksum, is fatal.
func Load(dir string, spec *service.FeatureSpec, logger *slog.Logger) (*LoadResult, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	manifest, err := readManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		if err := verifyManifest(dir, manifest); err != nil {
			return nil, err
		}
	}

	forestData, err := os.ReadFile(filepath.Join(dir, forestFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading forest artifact: %w", err)
	}
	var forest ForestArtifact
	if err := json.Unmarshal(forestData, &forest); err != nil {
		return nil, fmt.Errorf("parsing forest artifact: %w", err)
	}
	if forest.NFeatures != spec.Width() {
		return nil, fmt.Errorf("forest n_features %d does not match feature spec width %d", forest.NFeatures, spec.Width())
	}

	scaler, err := loadScaler(filepath.Join(dir, scalerFile), len(spec.ScaledNumerical()))
	if err != nil {
		return nil, err
	}
	if scaler == nil {
		logger.Warn("scaler artifact missing, encoding without standardization")
	}

	labels, err := loadLabels(filepath.Join(dir, labelsFile), &forest)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		logger.Warn("label classes missing, predictions decode to raw class indices")
	}

	info := port.ModelInfo{
		Mode:         "artifact",
		Ready:        true,
		ScalerLoaded: scaler != nil,
		LabelsLoaded: len(labels) > 0,
		FeatureCount: forest.NFeatures,
		ClassCount:   forest.NClasses,
	}
	if manifest != nil {
		info.ModelID = manifest.ModelID
		info.Version = manifest.Version
	}

	classifier, err := NewForestClassifier(&forest, labels, info)
	if err != nil {
		return nil, err
	}

	logger.Info("model artifacts loaded",
		slog.String("dir", dir),
		slog.Int("trees", len(forest.Trees)),
		slog.Int("features", forest.NFeatures),
		slog.Int("classes", forest.NClasses),
		slog.Bool("scaler", scaler != nil),
		slog.Bool("labels", len(labels) > 0),
		slog.String("model_id", info.ModelID),
		slog.String("version", info.Version),
	)

	result := &LoadResult{Classifier: classifier}
	if scaler != nil {
		result.Scaler = scaler
	}
	return result, nil
}

func readManifest(path string) (*artifactManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading model manifest: %w", err)
	}
	var manifest artifactManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing model manifest: %w", err)
	}
	return &manifest, nil
}

// verifyManifest checks the SHA-256 of every listed artifact before any of
// them is parsed.
func verifyManifest(dir string, manifest *artifactManifest) error {
	for name, entry := range manifest.Artifacts {
		path := entry.Path
		if path == "" {
			path = name
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading manifest artifact %s: %w", name, err)
		}
		sum := sha256Hex(data)
		if !strings.EqualFold(sum, entry.SHA256) {
			return fmt.Errorf("model artifact checksum mismatch for %s: got %s want %s", name, sum, entry.SHA256)
		}
	}
	return nil
}

func loadScaler(path string, want int) (*StandardScaler, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading scaler artifact: %w", err)
	}
	var artifact scalerArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing scaler artifact: %w", err)
	}
	if len(artifact.Mean) != want || len(artifact.Scale) != want {
		return nil, fmt.Errorf("scaler must carry %d mean/scale values, got %d/%d", want, len(artifact.Mean), len(artifact.Scale))
	}
	return NewStandardScaler(artifact.Mean, artifact.Scale)
}

// loadLabels prefers label_classes.json and falls back to the class names
// embedded in forest.json.
func loadLabels(path string, forest *ForestArtifact) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if len(forest.Classes) > 0 && len(forest.Classes) != forest.NClasses {
			return nil, fmt.Errorf("forest embeds %d class names for n_classes %d", len(forest.Classes), forest.NClasses)
		}
		return forest.Classes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading label classes: %w", err)
	}
	var artifact labelsArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing label classes: %w", err)
	}
	if len(artifact.Classes) != forest.NClasses {
		return nil, fmt.Errorf("label classes length %d does not match forest n_classes %d", len(artifact.Classes), forest.NClasses)
	}
	return artifact.Classes, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
