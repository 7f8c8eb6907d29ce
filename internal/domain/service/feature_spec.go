package service

import "fmt"

// Canonical field names. Every key in a raw input is rewritten to one of
// these (or passed through untouched when unrecognized).
const (
	FieldGender        = "gender"
	FieldAge           = "age"
	FieldHeight        = "height"
	FieldWeight        = "weight"
	FieldFamilyHistory = "family_history_with_overweight"
	FieldFAVC          = "favc"
	FieldFCVC          = "fcvc"
	FieldNCP           = "ncp"
	FieldCAEC          = "caec"
	FieldSmoke         = "smoke"
	FieldCH2O          = "ch2o"
	FieldSCC           = "scc"
	FieldFAF           = "faf"
	FieldTUE           = "tue"
	FieldCALC          = "calc"
	FieldMTrans        = "mtrans"
)

// FeatureSpec fixes the column layout the classifier was trained on: three
// scaled numericals, five raw numericals, then one one-hot block per
// categorical field over its complete vocabulary. The layout is immutable
// after construction; the encoder and the artifact loader both validate
// against it.
type FeatureSpec struct {
	scaledNumerical []string
	rawNumerical    []string
	categorical     []string
	vocabulary      map[string][]string
}

// NewFeatureSpec constructs the canonical feature spec.
func NewFeatureSpec() *FeatureSpec {
	return &FeatureSpec{
		scaledNumerical: []string{FieldAge, FieldHeight, FieldWeight},
		rawNumerical:    []string{FieldFCVC, FieldNCP, FieldCH2O, FieldFAF, FieldTUE},
		categorical: []string{
			FieldGender,
			FieldFamilyHistory,
			FieldFAVC,
			FieldCAEC,
			FieldSmoke,
			FieldSCC,
			FieldCALC,
			FieldMTrans,
		},
		vocabulary: map[string][]string{
			FieldGender:        {"Female", "Male"},
			FieldFamilyHistory: {"no", "yes"},
			FieldFAVC:          {"no", "yes"},
			FieldCAEC:          {"Always", "Frequently", "Sometimes", "no"},
			FieldSmoke:         {"no", "yes"},
			FieldSCC:           {"no", "yes"},
			FieldCALC:          {"Always", "Frequently", "Sometimes", "no"},
			FieldMTrans:        {"Automobile", "Bike", "Motorbike", "Public_Transportation", "Walking"},
		},
	}
}

// Validate checks internal consistency: every categorical field must carry a
// non-empty vocabulary. Called once at startup; a failure is a programming
// error, not a runtime condition.
func (s *FeatureSpec) Validate() error {
	for _, field := range s.categorical {
		vocab, ok := s.vocabulary[field]
		if !ok || len(vocab) == 0 {
			return fmt.Errorf("feature spec: categorical field %s has no vocabulary", field)
		}
	}
	if len(s.vocabulary) != len(s.categorical) {
		return fmt.Errorf("feature spec: vocabulary covers %d fields, expected %d", len(s.vocabulary), len(s.categorical))
	}
	return nil
}

// ScaledNumerical returns the scaled numerical fields in column order.
func (s *FeatureSpec) ScaledNumerical() []string {
	return s.scaledNumerical
}

// RawNumerical returns the unscaled numerical fields in column order.
func (s *FeatureSpec) RawNumerical() []string {
	return s.rawNumerical
}

// Categorical returns the categorical fields in one-hot block order.
func (s *FeatureSpec) Categorical() []string {
	return s.categorical
}

// Vocabulary returns the ordered levels for a categorical field.
func (s *FeatureSpec) Vocabulary(field string) []string {
	return s.vocabulary[field]
}

// Width returns the total encoded vector width.
func (s *FeatureSpec) Width() int {
	width := len(s.scaledNumerical) + len(s.rawNumerical)
	for _, field := range s.categorical {
		width += len(s.vocabulary[field])
	}
	return width
}

// ColumnNames returns the encoded column names in vector order: numerical
// fields by name, one-hot columns as field_level.
func (s *FeatureSpec) ColumnNames() []string {
	names := make([]string, 0, s.Width())
	names = append(names, s.scaledNumerical...)
	names = append(names, s.rawNumerical...)
	for _, field := range s.categorical {
		for _, level := range s.vocabulary[field] {
			names = append(names, field+"_"+level)
		}
	}
	return names
}
