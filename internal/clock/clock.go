package clock

import "time"

// NowFunc returns the current time; tests may replace it to get deterministic timestamps
var NowFunc = func() time.Time { return time.Now().UTC() }

// Now returns the current time
func Now() time.Time { return NowFunc() }
