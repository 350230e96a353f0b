package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/provider/fd"
)

type fakeProvider struct {
	matches []fd.Match
	err     error
	calls   int
}

func (p *fakeProvider) Matches(ctx context.Context, competition string, from, to time.Time, status string) ([]fd.Match, error) {
	p.calls++
	return p.matches, p.err
}

type fakeStore struct {
	batches [][]match.Record
	err     error
}

func (s *fakeStore) UpsertBatch(ctx context.Context, records []match.Record) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	return nil
}

func intPtr(n int) *int { return &n }

func sgt(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestSync_NormalizesToLocalTime(t *testing.T) {
	loc := sgt(t)
	provider := &fakeProvider{matches: []fd.Match{{
		ID:       497001,
		UTCDate:  time.Date(2025, 1, 11, 17, 30, 0, 0, time.UTC),
		Status:   "FINISHED",
		HomeTeam: fd.Team{Name: "Arsenal FC"},
		AwayTeam: fd.Team{Name: "Everton FC"},
		Score:    fd.Score{FullTime: fd.ScorePair{Home: intPtr(3), Away: intPtr(1)}},
	}}}
	store := &fakeStore{}

	s := New(provider, store, loc, "PL", "2025/26", nil)
	count, err := s.Sync(context.Background(), time.Now(), time.Now(), fd.StatusFinished)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if len(store.batches) != 1 || len(store.batches[0]) != 1 {
		t.Fatalf("store received %d batches", len(store.batches))
	}

	r := store.batches[0][0]
	if r.MatchID != 497001 {
		t.Errorf("MatchID = %d", r.MatchID)
	}
	// 17:30 UTC is 01:30 the next day in Singapore (UTC+8).
	if r.Time != "01:30" {
		t.Errorf("Time = %q, want 01:30", r.Time)
	}
	wantDate := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	if !r.Date.Equal(wantDate) {
		t.Errorf("Date = %s, want 2025-01-12", r.Date.Format("2006-01-02"))
	}
	if !r.UTCKickoff.Equal(time.Date(2025, 1, 11, 17, 30, 0, 0, time.UTC)) {
		t.Errorf("UTCKickoff = %s", r.UTCKickoff)
	}
	if !r.LocalKickoff.Equal(r.UTCKickoff) {
		t.Errorf("LocalKickoff instant drifted: %s vs %s", r.LocalKickoff, r.UTCKickoff)
	}
	if r.Season != "2025/26" {
		t.Errorf("Season = %q", r.Season)
	}
	if r.HomeScore == nil || *r.HomeScore != 3 || r.AwayScore == nil || *r.AwayScore != 1 {
		t.Errorf("scores = %v/%v, want 3/1", r.HomeScore, r.AwayScore)
	}
}

func TestSync_Idempotent(t *testing.T) {
	// Same provider payload twice produces identical records both times;
	// only updated_at differs, and that is stamped by the store.
	loc := sgt(t)
	provider := &fakeProvider{matches: []fd.Match{{
		ID:       1,
		UTCDate:  time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		Status:   "SCHEDULED",
		HomeTeam: fd.Team{Name: "A"},
		AwayTeam: fd.Team{Name: "B"},
	}}}
	store := &fakeStore{}
	s := New(provider, store, loc, "PL", "2025/26", nil)

	for i := 0; i < 2; i++ {
		if _, err := s.Sync(context.Background(), time.Now(), time.Now(), ""); err != nil {
			t.Fatalf("Sync #%d: %v", i+1, err)
		}
	}
	if len(store.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(store.batches))
	}
	first, second := store.batches[0][0], store.batches[1][0]
	if first != second {
		t.Errorf("re-sync produced different record:\n%+v\n%+v", first, second)
	}
}

func TestSync_ProviderErrorLeavesStoreUntouched(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	store := &fakeStore{}
	s := New(provider, store, time.UTC, "PL", "2025/26", nil)

	_, err := s.Sync(context.Background(), time.Now(), time.Now(), "")
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if len(store.batches) != 0 {
		t.Error("store must not be written on fetch failure")
	}
}

func TestSync_StoreErrorPropagates(t *testing.T) {
	provider := &fakeProvider{matches: []fd.Match{{ID: 1, UTCDate: time.Now()}}}
	store := &fakeStore{err: errors.New("deadlock")}
	s := New(provider, store, time.UTC, "PL", "2025/26", nil)

	if _, err := s.Sync(context.Background(), time.Now(), time.Now(), ""); err == nil {
		t.Fatal("want error, got nil")
	}
}

func TestSync_EmptyResponseIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	store := &fakeStore{}
	s := New(provider, store, time.UTC, "PL", "2025/26", nil)

	count, err := s.Sync(context.Background(), time.Now(), time.Now(), "")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if len(store.batches) != 0 {
		t.Error("no batch should be written for an empty response")
	}
}

func TestUpcomingRange(t *testing.T) {
	today := time.Date(2025, 1, 10, 15, 4, 5, 0, time.UTC)
	from, to := UpcomingRange(today, 7)
	if from.Format("2006-01-02") != "2025-01-10" || to.Format("2006-01-02") != "2025-01-17" {
		t.Errorf("range = %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
}

func TestPriorRange(t *testing.T) {
	today := time.Date(2025, 1, 10, 15, 4, 5, 0, time.UTC)
	from, to := PriorRange(today, 7)
	if from.Format("2006-01-02") != "2025-01-03" || to.Format("2006-01-02") != "2025-01-09" {
		t.Errorf("range = %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
}
