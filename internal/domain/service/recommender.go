package service

// Recommender derives lifestyle guidance from a normalized input and its BMI.
// Rules are evaluated in a fixed order and every matching rule appends its
// text, so one prediction can carry several recommendations.
type Recommender struct{}

// NewRecommender creates a new Recommender instance.
func NewRecommender() *Recommender {
	return &Recommender{}
}

// Recommend evaluates all recommendation rules against the input.
func (r *Recommender) Recommend(in NormalizedInput, bmi float64) []string {
	recommendations := make([]string, 0)

	// Rule: underweight BMI.
	if bmi < 18.5 {
		recommendations = append(recommendations, "Ensure adequate caloric intake and focus on nutrient-dense foods")
	}

	// Rule: healthy BMI band.
	if bmi >= 18.5 && bmi < 25 {
		recommendations = append(recommendations, "Maintain your current healthy lifestyle")
	}

	// Rule: overweight BMI band.
	if bmi >= 25 && bmi < 30 {
		recommendations = append(recommendations, "Consider increasing physical activity to at least 150 minutes per week")
	}

	// Rule: obese BMI band.
	if bmi >= 30 {
		recommendations = append(recommendations, "Consult with a healthcare professional for personalized advice")
	}

	// Rule: frequent high-caloric food consumption.
	if in.Category(FieldFAVC) == "yes" {
		recommendations = append(recommendations, "Reduce the frequency of high-caloric food consumption")
	}

	// Rule: low water intake.
	if in.Number(FieldCH2O) < 2 {
		recommendations = append(recommendations, "Stay hydrated with at least 2 liters of water daily")
	}

	// Rule: low physical activity.
	if in.Number(FieldFAF) < 1 {
		recommendations = append(recommendations, "Incorporate regular physical activity into your weekly routine")
	}

	// Rule: constant snacking between meals.
	if in.Category(FieldCAEC) == "Always" {
		recommendations = append(recommendations, "Reduce eating between meals and monitor portion sizes")
	}

	return recommendations
}
