package response_models

// AnalysisFailure classifies why an analysis could not produce real content.
type AnalysisFailure string

const (
	AnalysisOK                 AnalysisFailure = ""
	AnalysisFailureNetwork     AnalysisFailure = "network"
	AnalysisFailureConfig      AnalysisFailure = "configuration"
	AnalysisFailureQuota       AnalysisFailure = "quota"
	AnalysisFailureUnparseable AnalysisFailure = "unparseable"
	AnalysisFailureUnexpected  AnalysisFailure = "unexpected"
)

const InfoNotAvailable = "Information not available"

// AnalysisResult is always fully populated; on failure the five text fields explain the failure.
type AnalysisResult struct {
	FoodName       string          `json:"food_name"`
	Nutrition      string          `json:"nutrition"`
	Suitability    string          `json:"good_for_user"`
	DietPlan       string          `json:"diet_plan"`
	Recommendation string          `json:"recommendation"`
	Failure        AnalysisFailure `json:"failure,omitempty"`
	// Raw is the unprocessed model text, kept for the observation's audit column.
	Raw string `json:"raw,omitempty"`
}

func (r AnalysisResult) OK() bool { return r.Failure == AnalysisOK }

// FillMissing replaces empty fields with a placeholder.
func (r *AnalysisResult) FillMissing() {
	for _, f := range []*string{&r.FoodName, &r.Nutrition, &r.Suitability, &r.DietPlan, &r.Recommendation} {
		if *f == "" {
			*f = InfoNotAvailable
		}
	}
}

// FailedAnalysis builds the user-facing result for a failure kind. detail is shown only for
// configuration failures, where it tells the operator what to fix.
func FailedAnalysis(kind AnalysisFailure, detail string) AnalysisResult {
	switch kind {
	case AnalysisFailureNetwork:
		return AnalysisResult{
			FoodName:       "Network Error",
			Nutrition:      "<ul><li>Could not connect to the analysis service</li></ul>",
			Suitability:    "Service unavailable",
			DietPlan:       "Please check your internet connection and try again",
			Recommendation: "If the problem persists, please try again later",
			Failure:        kind,
		}
	case AnalysisFailureConfig:
		return AnalysisResult{
			FoodName:       "Configuration Error",
			Nutrition:      "<ul><li>Service configuration issue</li></ul>",
			Suitability:    "Unable to process request",
			DietPlan:       "Please contact support with this error message:",
			Recommendation: detail,
			Failure:        kind,
		}
	case AnalysisFailureQuota:
		return AnalysisResult{
			FoodName:       "Service Busy",
			Nutrition:      "<ul><li>The analysis quota has been exceeded</li></ul>",
			Suitability:    "Unable to assess right now",
			DietPlan:       "Please try again later",
			Recommendation: "API quota exceeded. Please try again in a few minutes",
			Failure:        kind,
		}
	case AnalysisFailureUnparseable:
		return AnalysisResult{
			FoodName:       "Could not analyze food properly",
			Nutrition:      "<ul><li>Nutritional information unavailable</li></ul>",
			Suitability:    "Unable to assess with the current image",
			DietPlan:       "Please consult a nutritionist for personalized advice",
			Recommendation: "Try uploading a clearer image of your food",
			Failure:        kind,
		}
	default:
		return AnalysisResult{
			FoodName:       "Analysis Failed",
			Nutrition:      "<ul><li>An unexpected error occurred</li></ul>",
			Suitability:    "Unable to process",
			DietPlan:       "Please try again with a different image",
			Recommendation: "If the problem persists, please contact support",
			Failure:        AnalysisFailureUnexpected,
		}
	}
}
