package bot

import (
	"math/rand"
	"time"
)

// threeYears is the lookback window for the random-date default. It uses a
// fixed 365-day year on purpose; the window is approximate and the date
// format is what matters.
const threeYears = 3 * 365 * 24 * time.Hour

// randomPastDate draws a uniform random instant from [now - 3 years, now)
// and truncates it to a calendar date (YYYY-MM-DD, UTC).
func randomPastDate(now time.Time) string {
	offset := time.Duration(rand.Int63n(int64(threeYears)))
	return now.Add(-offset).UTC().Format("2006-01-02")
}
