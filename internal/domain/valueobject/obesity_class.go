package valueobject

import "fmt"

// ObesityClass is an immutable value object representing one of the seven
// class labels the classifier was trained on.
type ObesityClass struct {
	value string
}

var (
	ClassInsufficientWeight = ObesityClass{value: "Insufficient_Weight"}
	ClassNormalWeight       = ObesityClass{value: "Normal_Weight"}
	ClassOverweightLevelI   = ObesityClass{value: "Overweight_Level_I"}
	ClassOverweightLevelII  = ObesityClass{value: "Overweight_Level_II"}
	ClassObesityTypeI       = ObesityClass{value: "Obesity_Type_I"}
	ClassObesityTypeII      = ObesityClass{value: "Obesity_Type_II"}
	ClassObesityTypeIII     = ObesityClass{value: "Obesity_Type_III"}
)

// AllObesityClasses returns the known classes in ascending severity order.
func AllObesityClasses() []ObesityClass {
	return []ObesityClass{
		ClassInsufficientWeight,
		ClassNormalWeight,
		ClassOverweightLevelI,
		ClassOverweightLevelII,
		ClassObesityTypeI,
		ClassObesityTypeII,
		ClassObesityTypeIII,
	}
}

// ObesityClassFromString reconstructs an ObesityClass from its label.
func ObesityClassFromString(s string) (ObesityClass, error) {
	switch s {
	case "Insufficient_Weight":
		return ClassInsufficientWeight, nil
	case "Normal_Weight":
		return ClassNormalWeight, nil
	case "Overweight_Level_I":
		return ClassOverweightLevelI, nil
	case "Overweight_Level_II":
		return ClassOverweightLevelII, nil
	case "Obesity_Type_I":
		return ClassObesityTypeI, nil
	case "Obesity_Type_II":
		return ClassObesityTypeII, nil
	case "Obesity_Type_III":
		return ClassObesityTypeIII, nil
	default:
		return ObesityClass{}, fmt.Errorf("invalid obesity class: %s", s)
	}
}

// String returns the class label.
func (c ObesityClass) String() string {
	return c.value
}

// IsZero returns true if the ObesityClass has not been set.
func (c ObesityClass) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another ObesityClass.
func (c ObesityClass) Equal(other ObesityClass) bool {
	return c.value == other.value
}

// RiskLevel returns the health risk tier assigned to this class.
func (c ObesityClass) RiskLevel() RiskLevel {
	switch c.value {
	case "Insufficient_Weight", "Normal_Weight":
		return RiskLevelLow
	case "Overweight_Level_I", "Overweight_Level_II":
		return RiskLevelModerate
	case "Obesity_Type_I":
		return RiskLevelHigh
	case "Obesity_Type_II":
		return RiskLevelVeryHigh
	case "Obesity_Type_III":
		return RiskLevelExtreme
	default:
		return RiskLevelUnknown
	}
}

// RiskLevelForLabel maps any classifier output label to a risk tier.
// Labels outside the known classes map to Unknown; this keeps the mapping
// total when the label decoder is running degraded.
func RiskLevelForLabel(label string) RiskLevel {
	class, err := ObesityClassFromString(label)
	if err != nil {
		return RiskLevelUnknown
	}
	return class.RiskLevel()
}
