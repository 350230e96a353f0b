package predict

import "time"

// Prediction is one row of the predictions table. (GroupID, UserID, MatchID)
// is unique; the storage upsert makes concurrent submissions for the same
// key race safely to a single row.
type Prediction struct {
	ID        int
	GroupID   int
	UserID    int
	MatchID   int64
	Home      int
	Away      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchPick is a window match joined with the caller's saved prediction, if
// any. Serves the prediction entry screen.
type MatchPick struct {
	MatchID int64     `json:"match_id"`
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Time    string    `json:"time"`
	Home    string    `json:"home"`
	Away    string    `json:"away"`
	MyHome  *int      `json:"my_home_pred"`
	MyAway  *int      `json:"my_away_pred"`
}

// MemberPick is another member's submitted prediction for a window match.
type MemberPick struct {
	MatchID   int64     `json:"match_id"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	UserID    int       `json:"user_id"`
	HomePred  int       `json:"home_pred"`
	AwayPred  int       `json:"away_pred"`
	UpdatedAt time.Time `json:"updated_at"`
}
