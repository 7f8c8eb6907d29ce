package testutil

import (
	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestSubjectID1   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestSubjectID2   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestPredictionID = uuid.MustParse("00000000-0000-0000-0000-000000000020")
)

// ValidPredictionInput returns a complete raw input payload that passes the
// feature contract with no defaults applied.
func ValidPredictionInput() map[string]any {
	return map[string]any{
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
		"calc":                           "Sometimes",
		"mtrans":                         "Public_Transportation",
	}
}
