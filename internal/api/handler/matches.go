package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/matchweek/matchweek/internal/api/respond"
	"github.com/matchweek/matchweek/internal/cache"
	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/provider/fd"
	syncer "github.com/matchweek/matchweek/internal/sync"
)

const (
	fixturesDays = 14
	resultsDays  = 14
)

// matchesEnvelope is the wire shape of fixture and result listings. Source is
// "provider" after a fresh sync and "fallback" when the provider was
// unreachable and only persisted rows are served.
type matchesEnvelope struct {
	Source    string         `json:"source"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Count     int            `json:"count"`
	Matches   []match.Record `json:"matches"`
	FetchedAt string         `json:"fetched_at"`
}

// GetFixtures lists upcoming fixtures.
// @Summary Upcoming fixtures
// @Description Lists scheduled matches for the next two weeks. A provider sync tops up the stored rows on cache miss; on provider failure the persisted rows are served with source=fallback.
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/fixtures [get]
func (h *Handler) GetFixtures(w http.ResponseWriter, r *http.Request) {
	today := time.Now().In(h.calc.Location())
	from, to := syncer.UpcomingRange(today, fixturesDays)
	h.serveMatches(w, r, "fixtures", from, to, fd.StatusScheduled, cache.TTLFixtures)
}

// GetResults lists recently finished matches.
// @Summary Recent results
// @Description Lists finished matches from the past two weeks. A provider sync tops up the stored rows on cache miss; on provider failure the persisted rows are served with source=fallback.
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/results [get]
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	today := time.Now().In(h.calc.Location())
	from, to := syncer.PriorRange(today, resultsDays)
	h.serveMatches(w, r, "results", from, to, fd.StatusFinished, cache.TTLResults)
}

// serveMatches implements the shared cache-aside read path: cache hit short
// circuits, a miss triggers a provider sync before reading the stored rows.
// Rows outlive the provider, so a failed sync degrades to stored data instead
// of erroring.
func (h *Handler) serveMatches(w http.ResponseWriter, r *http.Request, kind string, from, to time.Time, status string, ttl time.Duration) {
	key := kind + ":" + from.Format("2006-01-02") + ":" + to.Format("2006-01-02")

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	source := "provider"
	if _, err := h.syncer.Sync(r.Context(), from, to, status); err != nil {
		source = "fallback"
	}

	records, err := h.matches.InWindow(r.Context(), from, to)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "loading matches failed")
		return
	}
	records = filterStatus(records, status)
	if records == nil {
		records = []match.Record{}
	}

	env := matchesEnvelope{
		Source:    source,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Count:     len(records),
		Matches:   records,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(env)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "encoding matches failed")
		return
	}

	// Degraded responses are not cached so the next request retries the
	// provider instead of pinning stale data for the full TTL.
	etag := cache.ComputeETag(data)
	if source == "provider" {
		etag = h.cache.Set(key, data, ttl)
	}
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

// filterStatus keeps rows matching the listing's status. The date-range read
// returns every stored match in range; a fixture listing must not include a
// match that finished since it was stored.
func filterStatus(records []match.Record, status string) []match.Record {
	out := records[:0]
	for _, rec := range records {
		switch status {
		case fd.StatusScheduled:
			if !rec.Finished() {
				out = append(out, rec)
			}
		case fd.StatusFinished:
			if rec.Finished() {
				out = append(out, rec)
			}
		default:
			out = append(out, rec)
		}
	}
	return out
}
