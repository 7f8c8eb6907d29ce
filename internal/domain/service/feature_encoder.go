package service

import (
	"github.com/obesitrack/obesitrack/internal/domain/port"
)

// EncodedFeatures is the classifier-ready form of one input: the fixed-width
// numeric vector plus the BMI computed from raw height and weight.
type EncodedFeatures struct {
	Vector []float64
	BMI    float64
}

// FeatureEncoder builds the fixed-width vector the classifier was trained on.
// Column layout is owned by the FeatureSpec; the scaler is optional and its
// absence means scaled-numerical columns carry raw values.
type FeatureEncoder struct {
	spec   *FeatureSpec
	scaler port.FeatureScaler
}

// NewFeatureEncoder creates an encoder for the given spec. scaler may be nil.
func NewFeatureEncoder(spec *FeatureSpec, scaler port.FeatureScaler) *FeatureEncoder {
	return &FeatureEncoder{
		spec:   spec,
		scaler: scaler,
	}
}

// Encode turns a normalized input into the classifier vector. BMI is computed
// from the raw tuple before any scaling, so it is identical whether or not a
// scaler is loaded.
func (e *FeatureEncoder) Encode(in NormalizedInput) (EncodedFeatures, error) {
	scaledFields := e.spec.ScaledNumerical()
	tuple := make([]float64, len(scaledFields))
	for i, field := range scaledFields {
		tuple[i] = in.Number(field)
	}

	heightMeters := in.Number(FieldHeight) / 100
	bmi := in.Number(FieldWeight) / (heightMeters * heightMeters)

	if e.scaler != nil {
		tuple = e.scaler.Transform(tuple)
	}

	vector := make([]float64, 0, e.spec.Width())
	vector = append(vector, tuple...)

	for _, field := range e.spec.RawNumerical() {
		vector = append(vector, in.Number(field))
	}

	for _, field := range e.spec.Categorical() {
		value := in.Category(field)
		vocab := e.spec.Vocabulary(field)

		hot := -1
		for i, level := range vocab {
			if value == level {
				hot = i
				break
			}
		}
		if hot < 0 {
			return EncodedFeatures{}, &UnknownCategoryError{Field: field, Value: value}
		}

		for i := range vocab {
			if i == hot {
				vector = append(vector, 1)
			} else {
				vector = append(vector, 0)
			}
		}
	}

	if len(vector) != e.spec.Width() {
		return EncodedFeatures{}, &FeatureWidthMismatchError{Expected: e.spec.Width(), Actual: len(vector)}
	}

	return EncodedFeatures{Vector: vector, BMI: bmi}, nil
}
