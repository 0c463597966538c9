package gocoro

import (
	"testing"
	"time"
)

// timeoutChan returns a channel that fires after a generous bound, used in
// tests as the "this should never actually happen" arm of a select so a
// stuck test fails fast instead of hanging the suite.
func timeoutChan(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}
