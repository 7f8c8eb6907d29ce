package valueobject

import "fmt"

// RiskLevel is an immutable value object representing the health risk tier
// derived from a predicted obesity class.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow      = RiskLevel{value: "Low"}
	RiskLevelModerate = RiskLevel{value: "Moderate"}
	RiskLevelHigh     = RiskLevel{value: "High"}
	RiskLevelVeryHigh = RiskLevel{value: "Very High"}
	RiskLevelExtreme  = RiskLevel{value: "Extreme"}
	RiskLevelUnknown  = RiskLevel{value: "Unknown"}
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case "Low":
		return RiskLevelLow, nil
	case "Moderate":
		return RiskLevelModerate, nil
	case "High":
		return RiskLevelHigh, nil
	case "Very High":
		return RiskLevelVeryHigh, nil
	case "Extreme":
		return RiskLevelExtreme, nil
	case "Unknown":
		return RiskLevelUnknown, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %s", s)
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// Score returns the ordinal rank of this risk level.
// Low=1, Moderate=2, High=3, Very High=4, Extreme=5; Unknown and the zero
// value rank 0.
func (r RiskLevel) Score() int {
	switch r.value {
	case "Low":
		return 1
	case "Moderate":
		return 2
	case "High":
		return 3
	case "Very High":
		return 4
	case "Extreme":
		return 5
	default:
		return 0
	}
}

// IsHighRisk reports whether the tier is Very High or Extreme.
func (r RiskLevel) IsHighRisk() bool {
	return r.Score() >= RiskLevelVeryHigh.Score()
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
