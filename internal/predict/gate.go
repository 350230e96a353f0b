// Package predict implements the prediction gate: the window state machine,
// the per-match kickoff lock, and the validated submission path that is the
// only writer of prediction rows.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/window"
)

// Scope selects which window a request targets.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeNext    Scope = "next"
)

// ParseScope maps a raw query value to a Scope, defaulting to current.
func ParseScope(raw string) Scope {
	if raw == string(ScopeNext) {
		return ScopeNext
	}
	return ScopeCurrent
}

// ErrNotMember rejects the whole request when the caller is not an approved
// member of the group.
var ErrNotMember = errors.New("caller is not an approved member of the group")

// WindowClosedError rejects the whole request when the window is not open.
// It carries the window instants so the caller can tell the user when
// submissions are accepted.
type WindowClosedError struct {
	State   window.State
	OpenAt  time.Time
	CloseAt time.Time
}

func (e *WindowClosedError) Error() string {
	if e.CloseAt.IsZero() {
		return fmt.Sprintf("predictions %s: window opens %s", e.State, e.OpenAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("predictions %s: window open %s to %s",
		e.State, e.OpenAt.Format(time.RFC3339), e.CloseAt.Format(time.RFC3339))
}

// Entry is one submitted prediction line.
type Entry struct {
	MatchID int64 `json:"match_id"`
	Home    int   `json:"home_pred"`
	Away    int   `json:"away_pred"`
}

// SubmitRequest is a batch of entries for one (group, user, window).
type SubmitRequest struct {
	GroupID    int
	UserID     int
	Scope      Scope
	Entries    []Entry
	AllowEarly bool // explicit development/testing bypass
}

// SubmitResult reports how many entries were actually saved so the client
// can reconcile partial saves.
type SubmitResult struct {
	Saved     int
	WeekStart time.Time
	Window    window.Window
}

// MatchReader is the read-only slice of the match store the gate needs.
type MatchReader interface {
	ByID(ctx context.Context, id int64) (*match.Record, error)
	EarliestLocalKickoff(ctx context.Context, start, end time.Time) (*time.Time, error)
}

// PredictionWriter persists validated predictions.
type PredictionWriter interface {
	Upsert(ctx context.Context, p Prediction) error
}

// Membership is the external collaborator that answers the approved-member
// question.
type Membership interface {
	IsApprovedMember(ctx context.Context, groupID, userID int) (bool, error)
}

// Gate decides whether submissions are permitted and applies them.
type Gate struct {
	calc    *window.Calculator
	matches MatchReader
	preds   PredictionWriter
	members Membership
	bypass  bool // config-level dev bypass, OR-ed with per-request AllowEarly
	now     func() time.Time
	logger  *slog.Logger
}

// NewGate creates a Gate. bypass enables the development submission bypass
// for every request.
func NewGate(calc *window.Calculator, matches MatchReader, preds PredictionWriter, members Membership, bypass bool, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		calc:    calc,
		matches: matches,
		preds:   preds,
		members: members,
		bypass:  bypass,
		now:     time.Now,
		logger:  logger,
	}
}

// WindowAt computes the window containing anchor, including open/close
// instants derived from the earliest synced kickoff.
func (g *Gate) WindowAt(ctx context.Context, anchor time.Time) (window.Window, error) {
	start, end := window.WindowFor(anchor)
	first, err := g.matches.EarliestLocalKickoff(ctx, start, end)
	if err != nil {
		return window.Window{}, err
	}
	return g.calc.OpenClose(anchor, first), nil
}

// windowForScope resolves the current or next window relative to now.
func (g *Gate) windowForScope(ctx context.Context, now time.Time, scope Scope) (window.Window, error) {
	anchor := now.In(g.calc.Location())
	if scope == ScopeNext {
		return g.WindowAt(ctx, window.NextAnchor(anchor))
	}
	return g.WindowAt(ctx, anchor)
}

// Submit validates and saves a batch of predictions.
//
// Authorization failures (non-member, window not open) reject the whole
// request. Per-entry problems — unknown match, match outside the window,
// kickoff already passed, malformed scores — skip that entry only, so a
// batch containing a match that just kicked off does not lose the rest.
func (g *Gate) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ok, err := g.members.IsApprovedMember(ctx, req.GroupID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}

	now := g.now()
	w, err := g.windowForScope(ctx, now, req.Scope)
	if err != nil {
		return nil, fmt.Errorf("resolve window: %w", err)
	}

	if state := w.StateAt(now); state != window.Open && !req.AllowEarly && !g.bypass {
		return nil, &WindowClosedError{State: state, OpenAt: w.OpenAt, CloseAt: w.CloseAt}
	}

	result := &SubmitResult{WeekStart: w.Start, Window: w}
	for _, e := range req.Entries {
		if e.Home < 0 || e.Away < 0 {
			continue
		}

		m, err := g.matches.ByID(ctx, e.MatchID)
		if errors.Is(err, match.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve match %d: %w", e.MatchID, err)
		}
		if !w.ContainsDate(m.Date) {
			continue
		}
		// Kickoff lock is independent of window state: the close instant is
		// computed from the first kickoff, not this match's.
		if m.KickedOff(now.UTC()) {
			continue
		}

		p := Prediction{
			GroupID: req.GroupID,
			UserID:  req.UserID,
			MatchID: e.MatchID,
			Home:    e.Home,
			Away:    e.Away,
		}
		if err := g.preds.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("save prediction for match %d: %w", e.MatchID, err)
		}
		result.Saved++
	}

	g.logger.Info("Predictions submitted",
		"group", req.GroupID, "user", req.UserID, "scope", req.Scope,
		"submitted", len(req.Entries), "saved", result.Saved)
	return result, nil
}
