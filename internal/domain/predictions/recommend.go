package predictions

import "strings"

// Care recommendations derived from a classification label.
const (
	RecommendHealthy = "healthy state; maintain regular watering."
	RecommendDisease = "disease suspected; expert consultation recommended."
	RecommendMonitor = "periodic monitoring required."
)

// Recommend maps a classification label to a care recommendation.
// Matching is a case-insensitive substring check; "healthy" is checked
// before "disease" so a label containing both resolves to the healthy
// branch. Pure and total: every input hits exactly one branch.
func Recommend(className string) string {
	lower := strings.ToLower(className)
	switch {
	case strings.Contains(lower, "healthy"):
		return RecommendHealthy
	case strings.Contains(lower, "disease"):
		return RecommendDisease
	default:
		return RecommendMonitor
	}
}
