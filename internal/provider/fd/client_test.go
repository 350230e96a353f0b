package fd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "test-token", 600, nil)
}

func TestMatches_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
			t.Errorf("X-Auth-Token = %q, want test-token", got)
		}
		q := r.URL.Query()
		if q.Get("dateFrom") != "2025-01-09" || q.Get("dateTo") != "2025-01-15" {
			t.Errorf("date range = %s..%s", q.Get("dateFrom"), q.Get("dateTo"))
		}
		if q.Get("status") != "FINISHED" {
			t.Errorf("status = %q, want FINISHED", q.Get("status"))
		}
		w.Write([]byte(`{
			"matches": [{
				"id": 497001,
				"utcDate": "2025-01-11T12:30:00Z",
				"status": "FINISHED",
				"homeTeam": {"name": "Arsenal FC"},
				"awayTeam": {"name": "Everton FC"},
				"score": {"fullTime": {"home": 3, "away": 1}}
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	from := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	matches, err := c.Matches(context.Background(), "PL", from, to, StatusFinished)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}

	m := matches[0]
	if m.ID != 497001 {
		t.Errorf("ID = %d, want 497001", m.ID)
	}
	if m.HomeTeam.Name != "Arsenal FC" || m.AwayTeam.Name != "Everton FC" {
		t.Errorf("teams = %q vs %q", m.HomeTeam.Name, m.AwayTeam.Name)
	}
	want := time.Date(2025, 1, 11, 12, 30, 0, 0, time.UTC)
	if !m.UTCDate.Equal(want) {
		t.Errorf("UTCDate = %s, want %s", m.UTCDate, want)
	}
	if m.Score.FullTime.Home == nil || *m.Score.FullTime.Home != 3 {
		t.Errorf("home score = %v, want 3", m.Score.FullTime.Home)
	}
	if m.Score.FullTime.Away == nil || *m.Score.FullTime.Away != 1 {
		t.Errorf("away score = %v, want 1", m.Score.FullTime.Away)
	}
}

func TestMatches_NilScoresWhenScheduled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"matches": [{
				"id": 497002,
				"utcDate": "2025-01-12T16:00:00Z",
				"status": "SCHEDULED",
				"homeTeam": {"name": "Fulham FC"},
				"awayTeam": {"name": "Chelsea FC"},
				"score": {"fullTime": {"home": null, "away": null}}
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	matches, err := c.Matches(context.Background(), "PL", time.Now(), time.Now().AddDate(0, 0, 7), StatusScheduled)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if matches[0].Score.FullTime.Home != nil || matches[0].Score.FullTime.Away != nil {
		t.Error("scheduled match should have nil scores")
	}
}

func TestMatches_ErrorPayloadInsideOK(t *testing.T) {
	// football-data can return errorCode in a 200 body; must be an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorCode": 403, "message": "restricted resource"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Matches(context.Background(), "PL", time.Now(), time.Now(), "")
	if err == nil {
		t.Fatal("want error for errorCode payload, got nil")
	}
}

func TestMatches_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "rate limited"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Matches(context.Background(), "PL", time.Now(), time.Now(), "")
	if err == nil {
		t.Fatal("want error for 429, got nil")
	}
}

func TestMatches_OmitsEmptyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["status"]; present {
			t.Error("status param should be omitted when empty")
		}
		w.Write([]byte(`{"matches": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	matches, err := c.Matches(context.Background(), "PL", time.Now(), time.Now(), "")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len = %d, want 0", len(matches))
	}
}
