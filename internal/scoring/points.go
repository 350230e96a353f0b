// Package scoring converts predictions and final results into weekly and
// cumulative points. Point rules: 3 for the exact score, 1 for the right
// outcome, 0 otherwise; unfinished matches score 0.
package scoring

// Outcome returns the categorical result of a score pair: +1 home win,
// 0 draw, -1 away win.
func Outcome(home, away int) int {
	switch {
	case home > away:
		return 1
	case home < away:
		return -1
	default:
		return 0
	}
}

// PointsFor scores one prediction against the real result. Nil real scores
// mean the match has not finished and always score 0.
func PointsFor(predHome, predAway int, realHome, realAway *int) int {
	if realHome == nil || realAway == nil {
		return 0
	}
	if predHome == *realHome && predAway == *realAway {
		return 3
	}
	if Outcome(predHome, predAway) == Outcome(*realHome, *realAway) {
		return 1
	}
	return 0
}

// PredictionResult is one prediction joined with its match's final score.
type PredictionResult struct {
	UserID    int
	HomePred  int
	AwayPred  int
	HomeScore *int
	AwayScore *int
}

// Totals sums points per user for a week's prediction results.
func Totals(results []PredictionResult) map[int]int {
	totals := make(map[int]int)
	for _, r := range results {
		totals[r.UserID] += PointsFor(r.HomePred, r.AwayPred, r.HomeScore, r.AwayScore)
	}
	return totals
}
