package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matchweek/matchweek/internal/api/respond"
	"github.com/matchweek/matchweek/internal/cache"
	"github.com/matchweek/matchweek/internal/scoring"
)

func leaderboardKey(groupID int) string {
	return "leaderboard:" + strconv.Itoa(groupID)
}

// GetLeaderboard returns cumulative standings for a group.
// @Summary Group leaderboard
// @Description Returns per-user cumulative points across all scored weeks, ordered by total descending with ties broken by lowest user id.
// @Tags leaderboard
// @Produce json
// @Param groupID path int true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} respond.ErrorResponse
// @Router /groups/{groupID}/leaderboard [get]
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP", "invalid group id")
		return
	}
	if !h.requireMember(w, r, gid) {
		return
	}

	key := leaderboardKey(gid)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLLeaderboard, true)
		return
	}

	entries, err := h.engine.Leaderboard(r.Context(), gid)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading leaderboard failed")
		return
	}
	if entries == nil {
		entries = []scoring.LeaderboardEntry{}
	}

	data, err := json.Marshal(map[string]interface{}{
		"group_id":    gid,
		"standings":   entries,
		"computed_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "encoding leaderboard failed")
		return
	}

	etag := h.cache.Set(key, data, cache.TTLLeaderboard)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLLeaderboard, false)
}
