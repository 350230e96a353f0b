package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchweek/matchweek/internal/api/respond"
	"github.com/matchweek/matchweek/internal/auth"
	"github.com/matchweek/matchweek/internal/predict"
	"github.com/matchweek/matchweek/internal/window"
)

// windowPayload is the wire shape of one window.
type windowPayload struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	OpenAt      string `json:"open_at"`
	CloseAt     string `json:"close_at,omitempty"`
	HasFixtures bool   `json:"has_fixtures"`
	Open        bool   `json:"open"`
	State       string `json:"state"`
}

func toPayload(w window.Window, now time.Time) windowPayload {
	p := windowPayload{
		Start:       w.Start.Format("2006-01-02"),
		End:         w.End.Format("2006-01-02"),
		OpenAt:      w.OpenAt.Format(time.RFC3339),
		HasFixtures: w.HasFixtures(),
		Open:        w.StateAt(now) == window.Open,
		State:       string(w.StateAt(now)),
	}
	if w.HasFixtures() {
		p.CloseAt = w.CloseAt.Format(time.RFC3339)
	}
	return p
}

func groupID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "groupID"))
	return id, err == nil && id > 0
}

// requireMember answers the membership check once per request; a false
// return means the error response has already been written.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request, gid int) bool {
	ok, err := h.groups.IsApprovedMember(r.Context(), gid, auth.UserID(r.Context()))
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "membership check failed")
		return false
	}
	if !ok {
		respond.WriteError(w, http.StatusForbidden, "NOT_IN_GROUP", "not an approved member of this group")
		return false
	}
	return true
}

// GetWindow returns the current and next prediction windows.
// @Summary Current and next prediction windows
// @Description Returns open/close instants and open state for the window containing today and the one after it.
// @Tags predictions
// @Produce json
// @Param groupID path int true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /groups/{groupID}/predictions/window [get]
func (h *Handler) GetWindow(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.calc.Location())

	cur, err := h.gate.WindowAt(r.Context(), now)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "window computation failed")
		return
	}
	next, err := h.gate.WindowAt(r.Context(), window.NextAnchor(now))
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "window computation failed")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"current": toPayload(cur, now),
		"next":    toPayload(next, now),
	})
}

// GetWindowMatches lists window matches with the caller's saved picks.
// @Summary Window matches with own picks
// @Description Lists matches in the current or next window, each joined with the caller's latest saved prediction.
// @Tags predictions
// @Produce json
// @Param groupID path int true "Group ID"
// @Param scope query string false "Window scope" Enums(current, next)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} respond.ErrorResponse
// @Router /groups/{groupID}/predictions/matches [get]
func (h *Handler) GetWindowMatches(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP", "invalid group id")
		return
	}
	if !h.requireMember(w, r, gid) {
		return
	}

	scope := predict.ParseScope(r.URL.Query().Get("scope"))
	start, end := h.scopeRange(scope)

	picks, err := h.preds.WindowMatchesWithPicks(r.Context(), gid, auth.UserID(r.Context()), start, end)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading matches failed")
		return
	}
	if picks == nil {
		picks = []predict.MatchPick{}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"scope":      string(scope),
		"week_start": start.Format("2006-01-02"),
		"matches":    picks,
	})
}

// submitBody is the request body for SubmitPredictions.
type submitBody struct {
	Predictions []predict.Entry `json:"predictions"`
}

// SubmitPredictions saves the caller's predictions for a window.
// @Summary Submit predictions
// @Description Upserts the caller's predictions for matches in the selected window. Entries for unknown, out-of-window, or already kicked-off matches are skipped; the saved count is returned.
// @Tags predictions
// @Accept json
// @Produce json
// @Param groupID path int true "Group ID"
// @Param scope query string false "Window scope" Enums(current, next)
// @Param allow_early query string false "Development bypass" Enums(1)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Router /groups/{groupID}/predictions [post]
func (h *Handler) SubmitPredictions(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP", "invalid group id")
		return
	}

	var body submitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "request body is not valid JSON")
		return
	}
	if len(body.Predictions) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "NO_PREDICTIONS", "no predictions in request")
		return
	}

	req := predict.SubmitRequest{
		GroupID:    gid,
		UserID:     auth.UserID(r.Context()),
		Scope:      predict.ParseScope(r.URL.Query().Get("scope")),
		Entries:    body.Predictions,
		AllowEarly: r.URL.Query().Get("allow_early") == "1",
	}

	res, err := h.gate.Submit(r.Context(), req)
	if err != nil {
		var wce *predict.WindowClosedError
		switch {
		case errors.Is(err, predict.ErrNotMember):
			respond.WriteError(w, http.StatusForbidden, "NOT_IN_GROUP", "not an approved member of this group")
		case errors.As(err, &wce):
			respond.WriteErrorDetail(w, http.StatusForbidden, "WINDOW_CLOSED", "predictions are not open", wce.Error())
		default:
			respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "saving predictions failed")
		}
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"saved":      res.Saved,
		"scope":      string(req.Scope),
		"week_start": res.WeekStart.Format("2006-01-02"),
	})
}

// GetOthersPredictions shows other members' submitted picks for a window.
// @Summary Other members' predictions
// @Description Lists every member's submitted predictions for matches in the selected window.
// @Tags predictions
// @Produce json
// @Param groupID path int true "Group ID"
// @Param scope query string false "Window scope" Enums(current, next)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} respond.ErrorResponse
// @Router /groups/{groupID}/predictions/others [get]
func (h *Handler) GetOthersPredictions(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP", "invalid group id")
		return
	}
	if !h.requireMember(w, r, gid) {
		return
	}

	scope := predict.ParseScope(r.URL.Query().Get("scope"))
	start, end := h.scopeRange(scope)

	picks, err := h.preds.WindowPredictions(r.Context(), gid, start, end)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading predictions failed")
		return
	}
	if picks == nil {
		picks = []predict.MemberPick{}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"scope":       string(scope),
		"week_start":  start.Format("2006-01-02"),
		"predictions": picks,
	})
}

// GetPredictionStats returns outcome and exact-score tallies for the current
// window. Kept gated until the window closes so the tallies cannot influence
// open picks.
// @Summary Prediction aggregates
// @Description Per-match outcome counts and exact-score frequencies for the current window; available only after the window closes.
// @Tags predictions
// @Produce json
// @Param groupID path int true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} respond.ErrorResponse
// @Router /groups/{groupID}/predictions/stats [get]
func (h *Handler) GetPredictionStats(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP", "invalid group id")
		return
	}
	if !h.requireMember(w, r, gid) {
		return
	}

	now := time.Now().In(h.calc.Location())
	cur, err := h.gate.WindowAt(r.Context(), now)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "window computation failed")
		return
	}
	if cur.StateAt(now) != window.Closed {
		detail := "window has no close bound yet"
		if cur.HasFixtures() {
			detail = "closes at " + cur.CloseAt.Format(time.RFC3339)
		}
		respond.WriteErrorDetail(w, http.StatusForbidden, "STATS_NOT_AVAILABLE",
			"stats available after the window closes", detail)
		return
	}

	matches, err := h.matches.InWindow(r.Context(), cur.Start, cur.End)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading matches failed")
		return
	}
	picks, err := h.preds.WindowPredictions(r.Context(), gid, cur.Start, cur.End)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading predictions failed")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"week_start": cur.Start.Format("2006-01-02"),
		"matches":    predict.AggregateStats(matches, picks),
	})
}

// scopeRange resolves the date range for a scope without touching storage.
func (h *Handler) scopeRange(scope predict.Scope) (start, end time.Time) {
	anchor := time.Now().In(h.calc.Location())
	if scope == predict.ScopeNext {
		anchor = window.NextAnchor(anchor)
	}
	return window.WindowFor(anchor)
}
