package risk

import "testing"

func TestClampScoreSaturates(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-1000, 0},
		{-1, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{101, 100},
		{5000, 100},
	}
	for _, tc := range cases {
		if got := ClampScore(tc.in); got != tc.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClampScoreIdempotent(t *testing.T) {
	for s := -50; s <= 150; s++ {
		once := ClampScore(s)
		twice := ClampScore(once)
		if once != twice {
			t.Fatalf("ClampScore not idempotent at %d: %d != %d", s, once, twice)
		}
	}
}

func TestLevelFromScoreBoundaries(t *testing.T) {
	cases := []struct {
		score, want int
	}{
		{0, LevelBronze},
		{40, LevelBronze},
		{41, LevelSilver},
		{70, LevelSilver},
		{71, LevelGold},
		{100, LevelGold},
	}
	for _, tc := range cases {
		if got := LevelFromScore(tc.score); got != tc.want {
			t.Errorf("LevelFromScore(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
}

func TestLevelFromScoreMonotonic(t *testing.T) {
	prev := LevelFromScore(0)
	for s := 1; s <= 100; s++ {
		cur := LevelFromScore(s)
		if cur < prev {
			t.Fatalf("level decreased at score %d: %d -> %d", s, prev, cur)
		}
		prev = cur
	}
}
