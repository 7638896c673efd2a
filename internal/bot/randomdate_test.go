package bot

import (
	"testing"
	"time"
)

func TestRandomPastDateBounds(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	oldest := now.Add(-threeYears)

	seen := map[string]bool{}
	for i := 0; i < 10000; i++ {
		got := randomPastDate(now)
		d, err := time.ParseInLocation("2006-01-02", got, time.UTC)
		if err != nil {
			t.Fatalf("randomPastDate returned %q: %v", got, err)
		}
		// The instant is drawn from [now-3y, now); after truncating to a
		// date, the result lands in [oldest's date, now's date].
		if d.After(now) {
			t.Fatalf("date %s is in the future (now %s)", got, now.Format("2006-01-02"))
		}
		if d.Before(oldest.Truncate(24 * time.Hour).AddDate(0, 0, -1)) {
			t.Fatalf("date %s is older than the 3-year window", got)
		}
		seen[got] = true
	}
	if len(seen) < 100 {
		t.Fatalf("only %d distinct dates in 10000 draws; distribution looks broken", len(seen))
	}
}

func TestRandomPastDateFormat(t *testing.T) {
	got := randomPastDate(time.Now())
	if len(got) != 10 || got[4] != '-' || got[7] != '-' {
		t.Fatalf("randomPastDate = %q; want YYYY-MM-DD", got)
	}
}
