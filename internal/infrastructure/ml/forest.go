package ml

import (
	"context"
	"fmt"
	"strconv"

	"github.com/obesitrack/obesitrack/internal/domain/port"
)

var (
	_ port.Classifier     = (*ForestClassifier)(nil)
	_ port.ModelInspector = (*ForestClassifier)(nil)
)

// decisionTree holds one tree of the serialized ensemble in array form.
// Node i is a leaf when ChildrenLeft[i] < 0. Value rows carry either the
// per-class sample counts at the node (full export) or a single predicted
// class index (compact export without distributions).
type decisionTree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (t *decisionTree) validate(index, numClasses int) error {
	nodes := len(t.ChildrenLeft)
	if nodes == 0 {
		return fmt.Errorf("tree %d has no nodes", index)
	}
	if len(t.ChildrenRight) != nodes || len(t.Feature) != nodes || len(t.Threshold) != nodes {
		return fmt.Errorf("tree %d node arrays have inconsistent lengths", index)
	}
	if len(t.Value) != nodes {
		return fmt.Errorf("tree %d has %d value rows for %d nodes", index, len(t.Value), nodes)
	}
	for i, row := range t.Value {
		if len(row) != numClasses && len(row) != 1 {
			return fmt.Errorf("tree %d value row %d has width %d, want %d or 1", index, i, len(row), numClasses)
		}
	}
	return nil
}

// hasDistributions reports whether every value row carries per-class counts.
func (t *decisionTree) hasDistributions(numClasses int) bool {
	for _, row := range t.Value {
		if len(row) != numClasses {
			return false
		}
	}
	return len(t.Value) > 0
}

// walk descends from the root to a leaf and returns the leaf node index.
func (t *decisionTree) walk(vector []float64) (int, error) {
	node := 0
	for steps := 0; steps <= len(t.ChildrenLeft); steps++ {
		if node < 0 || node >= len(t.ChildrenLeft) {
			return 0, fmt.Errorf("tree walk reached invalid node %d", node)
		}
		if t.ChildrenLeft[node] < 0 {
			return node, nil
		}
		f := t.Feature[node]
		if f < 0 || f >= len(vector) {
			return 0, fmt.Errorf("tree node %d splits on feature %d outside vector width %d", node, f, len(vector))
		}
		if vector[f] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return 0, fmt.Errorf("tree walk did not terminate after %d steps", len(t.ChildrenLeft))
}

// ForestClassifier runs inference over a deserialized decision-tree ensemble.
// With per-class leaf counts it soft-votes: per-tree distributions are
// normalized and averaged, the top class wins and its mass is the reported
// probability. Compact exports without distributions fall back to a hard
// majority vote and report HasProbability=false.
type ForestClassifier struct {
	trees       []decisionTree
	labels      []string
	importances []float64
	info        port.ModelInfo
	numFeatures int
	numClasses  int
	soft        bool
}

// NewForestClassifier validates the deserialized ensemble and fixes the
// voting mode. Labels may be nil; undecodable indices render as decimal
// strings.
func NewForestClassifier(artifact *ForestArtifact, labels []string, info port.ModelInfo) (*ForestClassifier, error) {
	if artifact.NFeatures <= 0 {
		return nil, fmt.Errorf("forest n_features must be positive, got %d", artifact.NFeatures)
	}
	if artifact.NClasses <= 0 {
		return nil, fmt.Errorf("forest n_classes must be positive, got %d", artifact.NClasses)
	}
	if len(artifact.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	if len(artifact.FeatureImportances) > 0 && len(artifact.FeatureImportances) != artifact.NFeatures {
		return nil, fmt.Errorf("forest has %d feature importances for %d features", len(artifact.FeatureImportances), artifact.NFeatures)
	}
	soft := true
	for i := range artifact.Trees {
		if err := artifact.Trees[i].validate(i, artifact.NClasses); err != nil {
			return nil, err
		}
		if !artifact.Trees[i].hasDistributions(artifact.NClasses) {
			soft = false
		}
	}
	return &ForestClassifier{
		trees:       artifact.Trees,
		labels:      labels,
		importances: append([]float64(nil), artifact.FeatureImportances...),
		info:        info,
		numFeatures: artifact.NFeatures,
		numClasses:  artifact.NClasses,
		soft:        soft,
	}, nil
}

// Classify walks every tree and combines the votes.
func (c *ForestClassifier) Classify(ctx context.Context, vector []float64) (port.Classification, error) {
	if err := ctx.Err(); err != nil {
		return port.Classification{}, &port.PredictionError{Cause: err}
	}
	if len(vector) != c.numFeatures {
		return port.Classification{}, &port.PredictionError{
			Cause: fmt.Errorf("vector width %d does not match model width %d", len(vector), c.numFeatures),
		}
	}
	if c.soft {
		return c.classifySoft(vector)
	}
	return c.classifyHard(vector)
}

func (c *ForestClassifier) classifySoft(vector []float64) (port.Classification, error) {
	probs := make([]float64, c.numClasses)
	for i := range c.trees {
		leaf, err := c.trees[i].walk(vector)
		if err != nil {
			return port.Classification{}, &port.PredictionError{Cause: err}
		}
		row := c.trees[i].Value[leaf]
		total := 0.0
		for _, count := range row {
			total += count
		}
		if total <= 0 {
			return port.Classification{}, &port.PredictionError{
				Cause: fmt.Errorf("tree %d leaf %d has an empty class distribution", i, leaf),
			}
		}
		for class, count := range row {
			probs[class] += count / total
		}
	}
	best := 0
	for class := 1; class < c.numClasses; class++ {
		if probs[class] > probs[best] {
			best = class
		}
	}
	return port.Classification{
		Label:          c.decode(best),
		Probability:    probs[best] / float64(len(c.trees)),
		HasProbability: true,
	}, nil
}

func (c *ForestClassifier) classifyHard(vector []float64) (port.Classification, error) {
	votes := make([]int, c.numClasses)
	for i := range c.trees {
		leaf, err := c.trees[i].walk(vector)
		if err != nil {
			return port.Classification{}, &port.PredictionError{Cause: err}
		}
		row := c.trees[i].Value[leaf]
		var class int
		if len(row) == 1 {
			class = int(row[0])
		} else {
			for j := 1; j < len(row); j++ {
				if row[j] > row[class] {
					class = j
				}
			}
		}
		if class < 0 || class >= c.numClasses {
			return port.Classification{}, &port.PredictionError{
				Cause: fmt.Errorf("tree %d voted for class %d outside n_classes %d", i, class, c.numClasses),
			}
		}
		votes[class]++
	}
	best := 0
	for class := 1; class < c.numClasses; class++ {
		if votes[class] > votes[best] {
			best = class
		}
	}
	return port.Classification{Label: c.decode(best)}, nil
}

// decode maps a class index to its name, or to the decimal index when no
// label decoder was loaded.
func (c *ForestClassifier) decode(index int) string {
	if index >= 0 && index < len(c.labels) {
		return c.labels[index]
	}
	return strconv.Itoa(index)
}

func (c *ForestClassifier) Ready() bool {
	return true
}

// Info returns the metadata assembled by the artifact loader.
func (c *ForestClassifier) Info() port.ModelInfo {
	return c.info
}

// FeatureImportances returns per-column importances in vector order, when
// the artifact carried them.
func (c *ForestClassifier) FeatureImportances() ([]float64, bool) {
	if len(c.importances) == 0 {
		return nil, false
	}
	return append([]float64(nil), c.importances...), true
}
