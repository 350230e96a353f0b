// Package match defines the persisted match record and its Postgres store.
// Match rows are written exclusively by the fixture synchronizer; everything
// else reads.
package match

import (
	"time"
)

// Record is one row of the matches table. MatchID is the external provider's
// id and is stable across syncs. HomeScore/AwayScore are nil until the
// provider reports the match finished.
type Record struct {
	MatchID      int64     `json:"match_id"`
	Status       string    `json:"status"`
	Competition  string    `json:"competition"`
	Season       string    `json:"season"`
	Home         string    `json:"home"`
	Away         string    `json:"away"`
	UTCKickoff   time.Time `json:"utc_kickoff"`
	LocalKickoff time.Time `json:"local_kickoff"`
	Date         time.Time `json:"date"` // local calendar date (midnight UTC value)
	Time         string    `json:"time"` // local time-of-day "HH:MM"
	HomeScore    *int      `json:"home_score"`
	AwayScore    *int      `json:"away_score"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Finished reports whether final scores are known.
func (r *Record) Finished() bool {
	return r.HomeScore != nil && r.AwayScore != nil
}

// KickedOff reports whether the match's UTC kickoff has passed, which makes
// predictions for it immutable regardless of window state.
func (r *Record) KickedOff(now time.Time) bool {
	return !now.Before(r.UTCKickoff)
}
