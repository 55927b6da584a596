package session

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/letterdash/go-server/internal/board"
)

func TestCreateAssignsHost(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create("conn-1", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(s.ID) != 5 {
		t.Errorf("id %q should be a five-digit code", s.ID)
	}
	if s.Phase != AwaitingPlayers {
		t.Errorf("phase = %q, want %q", s.Phase, AwaitingPlayers)
	}
	if got := s.Host(); got.ConnID != "conn-1" || got.Name != "alice" {
		t.Errorf("host = %+v", got)
	}
	if s.Board != nil {
		t.Error("board must be absent before the game starts")
	}
}

func TestCreateDefaultsEmptyName(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("c", "   ")
	if s.Host().Name != DefaultPlayerName {
		t.Errorf("name = %q, want %q", s.Host().Name, DefaultPlayerName)
	}
}

func TestConcurrentCreateUniqueIDs(t *testing.T) {
	r := NewRegistry()
	const n = 200

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Create(string(rune(i))+"-conn", "host")
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			ids <- s.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d ids, want %d", len(seen), n)
	}
}

func TestJoinLifecycle(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("host-conn", "alice")

	if got := r.ListJoinable(); len(got) != 1 || got[0].GameID != s.ID {
		t.Fatalf("joinable = %+v, want the new session", got)
	}

	joined, err := r.Join(s.ID, "player-conn", "bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.Phase != ReadyToStart {
		t.Errorf("phase = %q, want %q", joined.Phase, ReadyToStart)
	}
	if len(joined.Players) != 2 || joined.Players[1].Name != "bob" {
		t.Errorf("players = %+v", joined.Players)
	}

	// Full sessions leave the listing.
	if got := r.ListJoinable(); len(got) != 0 {
		t.Errorf("joinable after fill = %+v, want empty", got)
	}
}

func TestJoinErrors(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("h", "alice")
	if _, err := r.Join("99999x", "c", "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("join missing: %v, want ErrNotFound", err)
	}
	_, _ = r.Join(s.ID, "c2", "bob")
	if _, err := r.Join(s.ID, "c3", "carol"); !errors.Is(err, ErrFull) {
		t.Errorf("join full: %v, want ErrFull", err)
	}
}

func TestConcurrentJoinSingleWinner(t *testing.T) {
	// Two concurrent joins against a one-player session: exactly one succeeds.
	for round := 0; round < 50; round++ {
		r := NewRegistry()
		s, _ := r.Create("host", "alice")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = r.Join(s.ID, []string{"b-conn", "c-conn"}[i], "joiner")
			}(i)
		}
		wg.Wait()

		okCount, fullCount := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, ErrFull):
				fullCount++
			default:
				t.Fatalf("unexpected join error: %v", err)
			}
		}
		if okCount != 1 || fullCount != 1 {
			t.Fatalf("round %d: %d successes, %d ErrFull; want 1 and 1", round, okCount, fullCount)
		}
		got, _ := r.Get(s.ID)
		if len(got.Players) != 2 {
			t.Fatalf("round %d: %d players, want 2", round, len(got.Players))
		}
	}
}

func TestPhaseGuards(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("h", "alice")

	// Countdown needs two players.
	if _, err := r.StartCountdown(s.ID); !errors.Is(err, ErrBadPhase) {
		t.Errorf("countdown with one player: %v, want ErrBadPhase", err)
	}
	// Board cannot be dealt before the countdown.
	if _, err := r.StartPlay(s.ID, nil); !errors.Is(err, ErrBadPhase) {
		t.Errorf("deal before countdown: %v, want ErrBadPhase", err)
	}

	_, _ = r.Join(s.ID, "p", "bob")
	if _, err := r.StartCountdown(s.ID); err != nil {
		t.Fatalf("StartCountdown: %v", err)
	}

	grid := board.New(rand.NewSource(1)).GenerateDefault()
	got, err := r.StartPlay(s.ID, grid)
	if err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if got.Phase != InProgress || got.Board == nil {
		t.Errorf("after deal: phase=%q board=%v", got.Phase, got.Board != nil)
	}

	// The board is dealt exactly once.
	if _, err := r.StartPlay(s.ID, grid); !errors.Is(err, ErrBadPhase) {
		t.Errorf("second deal: %v, want ErrBadPhase", err)
	}
}

func TestApplyScore(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("h", "alice")
	_, _ = r.Join(s.ID, "p", "bob")
	_, _ = r.StartCountdown(s.ID)
	_, _ = r.StartPlay(s.ID, board.New(rand.NewSource(1)).GenerateDefault())

	_, p, err := r.ApplyScore(s.ID, "p", 5)
	if err != nil || p.Score != 5 {
		t.Fatalf("ApplyScore: player=%+v err=%v", p, err)
	}
	_, p, _ = r.ApplyScore(s.ID, "p", -3)
	if p.Score != 2 {
		t.Errorf("score = %d, want 2", p.Score)
	}
	// Scores may go negative; no clamping.
	_, p, _ = r.ApplyScore(s.ID, "p", -3)
	_, p, _ = r.ApplyScore(s.ID, "p", -3)
	if p.Score != -4 {
		t.Errorf("score = %d, want -4", p.Score)
	}

	if _, _, err := r.ApplyScore(s.ID, "stranger", 5); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("stranger score: %v, want ErrNoPlayer", err)
	}
}

func TestSnapshotsDoNotAliasRegistryState(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("h", "alice")
	s.Players[0].Score = 999
	s.Players[0].Name = "mallory"

	got, _ := r.Get(s.ID)
	if got.Players[0].Score != 0 || got.Players[0].Name != "alice" {
		t.Error("mutating a returned snapshot leaked into the registry")
	}
}

func TestEndAndByConnection(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create("h", "alice")
	_, _ = r.Join(s.ID, "p", "bob")

	if got, ok := r.ByConnection("p"); !ok || got.ID != s.ID {
		t.Fatalf("ByConnection = %v, %v", got, ok)
	}

	final, err := r.End(s.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if final.Phase != Ended {
		t.Errorf("final phase = %q, want %q", final.Phase, Ended)
	}
	if _, err := r.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ended session still present: %v", err)
	}
	if _, ok := r.ByConnection("h"); ok {
		t.Error("connection index should be cleared on end")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
