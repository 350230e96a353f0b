package handler

import (
	"net/http"

	"github.com/matchweek/matchweek/internal/api/respond"
)

// TriggerCycle runs one full weekly cycle immediately, outside the timer.
// Used for operational catch-up after a score correction upstream; the run is
// unconditional and safe to repeat because recomputation replaces totals.
// @Summary Run the weekly cycle now
// @Description Syncs fixtures and results, then recomputes the most recently closed week for every active group. Idempotent.
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/cycle [post]
func (h *Handler) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	result := h.runner.RunOnce(r.Context())

	// Recomputed totals supersede any cached standings.
	if ids, err := h.groups.ActiveGroupIDs(r.Context()); err == nil {
		for _, gid := range ids {
			h.cache.Invalidate(leaderboardKey(gid))
		}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"week_start":      result.WeekStart.Format("2006-01-02"),
		"fixtures_synced": result.FixturesSynced,
		"results_synced":  result.ResultsSynced,
		"groups_scored":   result.GroupsScored,
		"users_scored":    result.UsersScored,
		"sync_errors":     result.SyncErrors,
		"duration":        result.Duration.String(),
	})
}
