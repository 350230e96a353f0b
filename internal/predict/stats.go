package predict

import (
	"fmt"
	"sort"

	"github.com/matchweek/matchweek/internal/match"
)

// OutcomeCounts tallies how many members picked each categorical result.
type OutcomeCounts struct {
	Home int `json:"home"`
	Draw int `json:"draw"`
	Away int `json:"away"`
}

// ScoreCount is the frequency of one exact predicted score.
type ScoreCount struct {
	Score string `json:"score"` // "2-1"
	Count int    `json:"count"`
}

// MatchStats aggregates a window match's predictions. Matches nobody
// predicted still appear, with zero counts.
type MatchStats struct {
	MatchID  int64         `json:"match_id"`
	Home     string        `json:"home"`
	Away     string        `json:"away"`
	Outcomes OutcomeCounts `json:"outcomes"`
	Scores   []ScoreCount  `json:"scores"`
}

// AggregateStats builds per-match outcome and exact-score tallies from the
// window's matches and every member's picks. Pure; callers gate it until the
// window closes so the tallies cannot influence open picks.
func AggregateStats(matches []match.Record, picks []MemberPick) []MatchStats {
	byMatch := make(map[int64]*MatchStats, len(matches))
	order := make([]int64, 0, len(matches))
	for _, m := range matches {
		byMatch[m.MatchID] = &MatchStats{MatchID: m.MatchID, Home: m.Home, Away: m.Away}
		order = append(order, m.MatchID)
	}

	scoreCounts := make(map[int64]map[string]int)
	for _, p := range picks {
		st, ok := byMatch[p.MatchID]
		if !ok {
			continue
		}
		switch {
		case p.HomePred > p.AwayPred:
			st.Outcomes.Home++
		case p.HomePred == p.AwayPred:
			st.Outcomes.Draw++
		default:
			st.Outcomes.Away++
		}

		if scoreCounts[p.MatchID] == nil {
			scoreCounts[p.MatchID] = make(map[string]int)
		}
		scoreCounts[p.MatchID][fmt.Sprintf("%d-%d", p.HomePred, p.AwayPred)]++
	}

	out := make([]MatchStats, 0, len(order))
	for _, id := range order {
		st := byMatch[id]
		for score, n := range scoreCounts[id] {
			st.Scores = append(st.Scores, ScoreCount{Score: score, Count: n})
		}
		// Deterministic ordering: most common first, then lexical.
		sort.Slice(st.Scores, func(i, j int) bool {
			if st.Scores[i].Count != st.Scores[j].Count {
				return st.Scores[i].Count > st.Scores[j].Count
			}
			return st.Scores[i].Score < st.Scores[j].Score
		})
		out = append(out, *st)
	}
	return out
}
